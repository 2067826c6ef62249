// Package config defines the configuration surface of the server and the
// Manager that loads it from defaults, a yaml file, environment variables
// and command line flags (in ascending precedence).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MANGO"

// MysqlConfig defines configs related to MySQL
type MysqlConfig struct {
	Protocol        string
	Address         string
	Username        string
	Password        string
	Database        string
	MaxOpenConns    int `yaml:"max_open_conns"`
	MaxIdleConns    int `yaml:"max_idle_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"`
}

// ServerConfig defines configs related to the HTTP server
type ServerConfig struct {
	Address string
	// Datastore selects the backing store implementation: "mysql" for
	// production, "inmem" for development.
	Datastore string
}

// OsqueryConfig defines configs related to the osquery node protocol
type OsqueryConfig struct {
	// EnrollSecret is the shared secret nodes present to enroll. It is
	// compared, never stored.
	EnrollSecret string `yaml:"enroll_secret"`
	// NodeKeySize is the entropy of generated node keys in bytes. Keys
	// are rendered as lowercase hex, twice this many characters.
	NodeKeySize int `yaml:"node_key_size"`
	// EnrollRequestsPerMinute rate limits the enroll endpoint.
	EnrollRequestsPerMinute int `yaml:"enroll_requests_per_minute"`
}

// LoggingConfig defines configs related to logging
type LoggingConfig struct {
	Debug bool
	JSON  bool
}

// MangoConfig stores the application configuration. Each subcategory is
// broken up into it's own struct, defined above. When editing any of these
// structs, Manager.addConfigs and Manager.LoadConfig should be updated to
// set and retrieve the configurations as appropriate.
type MangoConfig struct {
	Mysql   MysqlConfig
	Server  ServerConfig
	Osquery OsqueryConfig
	Logging LoggingConfig
}

// addConfigs adds the configuration keys and default values that will be
// filled into the MangoConfig struct
func (man Manager) addConfigs() {
	man.addConfigString("config", "", "Path to a yaml configuration file")

	// MySQL
	man.addConfigString("mysql.protocol", "tcp",
		"MySQL server communication protocol (tcp,unix,...)")
	man.addConfigString("mysql.address", "localhost:3306",
		"MySQL server address (host:port)")
	man.addConfigString("mysql.username", "mango",
		"MySQL server username")
	man.addConfigString("mysql.password", "",
		"MySQL server password (prefer env variable for security)")
	man.addConfigString("mysql.database", "mango",
		"MySQL database name")
	man.addConfigInt("mysql.max_open_conns", 50, "MySQL maximum open connection handles")
	man.addConfigInt("mysql.max_idle_conns", 50, "MySQL maximum idle connection handles")
	man.addConfigInt("mysql.conn_max_lifetime", 0, "MySQL maximum amount of time a connection may be reused")

	// Server
	man.addConfigString("server.address", "0.0.0.0:8080",
		"HTTP address for the server to serve on (TLS termination is external)")
	man.addConfigString("server.datastore", "mysql",
		"Datastore to use (mysql, inmem)")

	// Osquery
	man.addConfigString("osquery.enroll_secret", "",
		"Secret nodes use to enroll")
	man.addConfigInt("osquery.node_key_size", 16,
		"Size of generated node keys in bytes")
	man.addConfigInt("osquery.enroll_requests_per_minute", 12,
		"Maximum enroll requests accepted per minute")

	// Logging
	man.addConfigBool("logging.debug", false,
		"Enable debug logging")
	man.addConfigBool("logging.json", false,
		"Log in JSON format")
}

// LoadConfig will load the config variables into a fully initialized
// MangoConfig struct
func (man Manager) LoadConfig() MangoConfig {
	man.loadConfigFile()

	return MangoConfig{
		Mysql: MysqlConfig{
			Protocol:        man.getConfigString("mysql.protocol"),
			Address:         man.getConfigString("mysql.address"),
			Username:        man.getConfigString("mysql.username"),
			Password:        man.getConfigString("mysql.password"),
			Database:        man.getConfigString("mysql.database"),
			MaxOpenConns:    man.getConfigInt("mysql.max_open_conns"),
			MaxIdleConns:    man.getConfigInt("mysql.max_idle_conns"),
			ConnMaxLifetime: man.getConfigInt("mysql.conn_max_lifetime"),
		},
		Server: ServerConfig{
			Address:   man.getConfigString("server.address"),
			Datastore: man.getConfigString("server.datastore"),
		},
		Osquery: OsqueryConfig{
			EnrollSecret:            man.getConfigString("osquery.enroll_secret"),
			NodeKeySize:             man.getConfigInt("osquery.node_key_size"),
			EnrollRequestsPerMinute: man.getConfigInt("osquery.enroll_requests_per_minute"),
		},
		Logging: LoggingConfig{
			Debug: man.getConfigBool("logging.debug"),
			JSON:  man.getConfigBool("logging.json"),
		},
	}
}

// IsSet determines whether a given config key has been explicitly set by any
// of the configuration sources. If false, the default value is being used.
func (man Manager) IsSet(key string) bool {
	return man.viper.IsSet(key)
}

// envNameFromConfigKey converts a config key into the corresponding
// environment variable name
func envNameFromConfigKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.Replace(key, ".", "_", -1))
}

// flagNameFromConfigKey converts a config key into the corresponding flag name
func flagNameFromConfigKey(key string) string {
	return strings.Replace(key, ".", "_", -1)
}

// Manager manages the addition and retrieval of config values for mango
// configs. It's only public API method is LoadConfig, which will return the
// populated MangoConfig struct.
type Manager struct {
	viper    *viper.Viper
	command  *cobra.Command
	defaults map[string]interface{}
}

// NewManager initializes a Manager wrapping the provided cobra
// command. All config flags will be attached to that command (and inherited by
// the subcommands). Typically this should be called just once, with the root
// command.
func NewManager(command *cobra.Command) Manager {
	man := Manager{
		viper:    viper.New(),
		command:  command,
		defaults: map[string]interface{}{},
	}
	man.addConfigs()
	return man
}

// addDefault will check for duplication, then add a default value to the
// defaults map
func (man Manager) addDefault(key string, defVal interface{}) {
	if _, exists := man.defaults[key]; exists {
		panic("Trying to add duplicate config for key " + key)
	}

	man.defaults[key] = defVal
}

func getFlagUsage(key string, usage string) string {
	return fmt.Sprintf("Env: %s\n\t\t%s", envNameFromConfigKey(key), usage)
}

// getInterfaceVal is a helper function used by the getConfig* functions to
// retrieve the config value as interface{}, which will then be cast to the
// appropriate type by the getConfig* function.
func (man Manager) getInterfaceVal(key string) interface{} {
	interfaceVal := man.viper.Get(key)
	if interfaceVal == nil {
		var ok bool
		interfaceVal, ok = man.defaults[key]
		if !ok {
			panic("Tried to look up default value for nonexistent config option: " + key)
		}
	}
	return interfaceVal
}

// addConfigString adds a string config to the config options
func (man Manager) addConfigString(key, defVal, usage string) {
	man.command.PersistentFlags().String(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigString retrieves a string from the loaded config
func (man Manager) getConfigString(key string) string {
	interfaceVal := man.getInterfaceVal(key)
	stringVal, err := cast.ToStringE(interfaceVal)
	if err != nil {
		panic("Unable to cast to string for key " + key + ": " + err.Error())
	}

	return stringVal
}

// addConfigInt adds a int config to the config options
func (man Manager) addConfigInt(key string, defVal int, usage string) {
	man.command.PersistentFlags().Int(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigInt retrieves a int from the loaded config
func (man Manager) getConfigInt(key string) int {
	interfaceVal := man.getInterfaceVal(key)
	intVal, err := cast.ToIntE(interfaceVal)
	if err != nil {
		panic("Unable to cast to int for key " + key + ": " + err.Error())
	}

	return intVal
}

// addConfigBool adds a bool config to the config options
func (man Manager) addConfigBool(key string, defVal bool, usage string) {
	man.command.PersistentFlags().Bool(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigBool retrieves a bool from the loaded config
func (man Manager) getConfigBool(key string) bool {
	interfaceVal := man.getInterfaceVal(key)
	boolVal, err := cast.ToBoolE(interfaceVal)
	if err != nil {
		panic("Unable to cast to bool for key " + key + ": " + err.Error())
	}

	return boolVal
}

// loadConfigFile handles the loading of the config file.
func (man Manager) loadConfigFile() {
	man.viper.SetConfigType("yaml")

	configFile := man.getConfigString("config")

	if configFile == "" {
		// No config file set, only use configs from env
		// vars/flags/defaults
		return
	}

	man.viper.SetConfigFile(configFile)
	err := man.viper.ReadInConfig()
	if err != nil {
		fmt.Println("Error loading config file:", err)
		os.Exit(1)
	}

	fmt.Println("Using config file: ", man.viper.ConfigFileUsed())
}

// TestConfig returns a barebones configuration suitable for use in tests.
// Individual tests may want to override some of the values provided.
func TestConfig() MangoConfig {
	return MangoConfig{
		Osquery: OsqueryConfig{
			EnrollSecret:            "correct horse battery staple",
			NodeKeySize:             16,
			EnrollRequestsPerMinute: 1000,
		},
		Logging: LoggingConfig{
			Debug: true,
		},
	}
}
