package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by the cli
	EnvPrefix = "dmux"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and makes viper read DMUX_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// SetupClientFlags adds the connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultClientConfig()
	flags := cmd.PersistentFlags()

	key := "config"
	flags.String(key, "", WrapString("Optional yaml file with the client configuration. Flags and environment variables take precedence"))

	key = "endpoint"
	flags.String(key, defaults.Endpoint, WrapString("The address of the engine (e.g. /tmp/dmux.sock, unix://engine.sock, tcp://localhost:6380, localhost:6380)"))

	key = "transport"
	flags.String(key, string(defaults.Transport), WrapString("Transport to use (auto, unix, tcp). auto derives it from the endpoint"))

	key = "timeout"
	flags.Int(key, defaults.TimeoutSecond, WrapString("The request timeout in seconds, 0 disables it"))

	key = "connect-timeout"
	flags.Int(key, defaults.ConnectTimeoutSecond, WrapString("The timeout in seconds for dialing and the connection handshake"))

	key = "threads"
	flags.Int(key, defaults.ThreadPoolSize, WrapString("Number of event loops shared by all connections, 0 means one per CPU"))

	key = "write-buffer"
	flags.Int(key, defaults.SocketConf.WriteBufferSize/1024, WrapString("The size of the socket write buffer (in KB)"))

	key = "read-buffer"
	flags.Int(key, defaults.SocketConf.ReadBufferSize/1024, WrapString("The size of the socket read buffer (in KB)"))

	key = "max-frame-size"
	flags.Int(key, defaults.SocketConf.MaxFrameSize/1024, WrapString("The largest accepted response frame (in KB)"))

	key = "tcp-nodelay"
	flags.Bool(key, defaults.TCPConf.TCPNoDelay, WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "tcp-keepalive"
	flags.Int(key, defaults.TCPConf.TCPKeepAliveSec, WrapString("The keepalive interval in seconds (tcp only)"))

	key = "tcp-linger"
	flags.Int(key, defaults.TCPConf.TCPLingerSec, WrapString("The linger time in seconds, -1 keeps the os default (tcp only)"))

	key = "username"
	flags.String(key, "", WrapString("Username sent in the connection request"))

	key = "password"
	flags.String(key, "", WrapString("Password sent in the connection request"))

	key = "database"
	flags.Uint32(key, 0, WrapString("Database ID sent in the connection request"))

	key = "client-name"
	flags.String(key, "dmux-cli", WrapString("Client name sent in the connection request"))
}

// GetClientConfig builds the client configuration. Values are layered:
// defaults, then the --config file, then environment variables and flags.
func GetClientConfig() (*common.ClientConfig, error) {
	conf := common.DefaultClientConfig()
	if path := viper.GetString("config"); path != "" {
		var err error
		if conf, err = common.LoadClientConfig(path); err != nil {
			return nil, err
		}
	}

	if viper.IsSet("endpoint") {
		conf.Endpoint = viper.GetString("endpoint")
	}
	if viper.IsSet("transport") {
		conf.Transport = common.TransportKind(viper.GetString("transport"))
	}
	if viper.IsSet("timeout") {
		conf.TimeoutSecond = viper.GetInt("timeout")
	}
	if viper.IsSet("connect-timeout") {
		conf.ConnectTimeoutSecond = viper.GetInt("connect-timeout")
	}
	if viper.IsSet("threads") {
		conf.ThreadPoolSize = viper.GetInt("threads")
	}
	if viper.IsSet("write-buffer") {
		conf.SocketConf.WriteBufferSize = viper.GetInt("write-buffer") * 1024
	}
	if viper.IsSet("read-buffer") {
		conf.SocketConf.ReadBufferSize = viper.GetInt("read-buffer") * 1024
	}
	if viper.IsSet("max-frame-size") {
		conf.SocketConf.MaxFrameSize = viper.GetInt("max-frame-size") * 1024
	}
	if viper.IsSet("tcp-nodelay") {
		conf.TCPConf.TCPNoDelay = viper.GetBool("tcp-nodelay")
	}
	if viper.IsSet("tcp-keepalive") {
		conf.TCPConf.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	}
	if viper.IsSet("tcp-linger") {
		conf.TCPConf.TCPLingerSec = viper.GetInt("tcp-linger")
	}
	if viper.IsSet("username") {
		conf.Username = viper.GetString("username")
	}
	if viper.IsSet("password") {
		conf.Password = viper.GetString("password")
	}
	if viper.IsSet("database") {
		conf.DatabaseID = viper.GetUint32("database")
	}
	if viper.IsSet("client-name") || conf.ClientName == "" {
		conf.ClientName = viper.GetString("client-name")
	}
	if viper.IsSet("log-level") {
		conf.LogLevel = viper.GetString("log-level")
	}

	return &conf, nil
}

// --------------------------------------------------------------------------
// Shared
// --------------------------------------------------------------------------

// GetSerializer creates the serializer selected by the --serializer flag
func GetSerializer() (serializer.IRPCSerializer, error) {
	s, err := serializer.NewSerializer(viper.GetString("serializer"))
	if err != nil {
		return nil, fmt.Errorf("invalid serializer %s (expected one of %s)",
			viper.GetString("serializer"), strings.Join(serializer.Names(), ", "))
	}
	return s, nil
}

// InitLogging applies the --log-level flag to all loggers
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}
