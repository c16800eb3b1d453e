package structures

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
	Username   string
}
