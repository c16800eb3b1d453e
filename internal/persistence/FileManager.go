package persistence

import (
	"barcodedrop/internal/models"
	"barcodedrop/internal/persistence/interfaces"
	"barcodedrop/internal/providers"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

const preferencesVersion = 1

// preferencesFile is the on-disk envelope.
type preferencesFile struct {
	Version     int                `json:"version"`
	Preferences models.Preferences `json:"preferences"`
}

type FileManager struct {
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		logger:     logger,
	}
}

// SaveToFile writes prefs through a temp file and rename, so a crash never
// leaves a half-written file behind.
func (f *FileManager) SaveToFile(fileName string, prefs models.Preferences) error {
	jsonData, err := json.Marshal(preferencesFile{Version: preferencesVersion, Preferences: prefs})
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile returns the stored preferences. found is false when no file exists yet.
func (f *FileManager) LoadFromFile(fileName string) (prefs models.Preferences, found bool, err error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Preferences{}, false, nil
		}
		return models.Preferences{}, false, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return models.Preferences{}, false, fmt.Errorf("unable to decompress %s: %w", fileName, err)
	}

	var stored preferencesFile
	if err := json.Unmarshal(decompressed, &stored); err != nil {
		return models.Preferences{}, false, fmt.Errorf("unable to decode %s: %w", fileName, err)
	}
	if stored.Version != preferencesVersion {
		f.logger.Warnf(providers.TypeApp, "Preferences file %s has version %d, expected %d", fileName, stored.Version, preferencesVersion)
	}
	return stored.Preferences, true, nil
}
