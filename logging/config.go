package logging

// Config is the `logging` section of board.yml.
//
//	logging:
//	  level: debug        # BOARD_LOG_LEVEL wins
//	  caller: true        # BOARD_LOG_CALLER=true
//	  format: json        # text (default), simple, json
//	  stderr: always      # auto (default), always, never
//	  file: ~/board.log   # "off" disables; empty means <state>/logs/<component>-<date>.log
type Config struct {
	Level  string `yaml:"level"`
	Caller bool   `yaml:"caller"`
	Format string `yaml:"format"`
	Stderr string `yaml:"stderr"`
	File   string `yaml:"file"`
}

// FileOff disables the file sink.
const FileOff = "off"

// FormatConfig tunes TextFormatter.
type FormatConfig struct {
	DisableTimestamp bool
	DisableComponent bool
}
