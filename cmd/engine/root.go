package engine

import (
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/dMux/cmd/util"
	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	engineCmdConfig = &common.ServerConfig{}
	EngineCmd       = &cobra.Command{
		Use:     "engine",
		Short:   "Start the in-memory dMux engine",
		Long:    `Start the in-memory engine with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DMUX_<flag> (e.g. DMUX_WORKERS=32)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	defaults := common.DefaultClientConfig()

	// add flags
	key := "endpoint"
	EngineCmd.Flags().String(key, defaults.Endpoint, cmdUtil.WrapString("The address on which the engine will listen (e.g. /tmp/dmux.sock, unix://engine.sock, 0.0.0.0:6380, tcp://localhost:6380)"))

	key = "transport"
	EngineCmd.Flags().String(key, string(common.TransportAuto), cmdUtil.WrapString("Transport to use (auto, unix, tcp). auto derives it from the endpoint"))

	key = "timeout"
	EngineCmd.Flags().Int(key, 0, cmdUtil.WrapString("Idle timeout in seconds after which a silent connection is dropped, 0 disables it"))

	key = "workers"
	EngineCmd.Flags().Int(key, 64, cmdUtil.WrapString("Maximum number of concurrently executing commands per connection"))

	key = "password"
	EngineCmd.Flags().String(key, "", cmdUtil.WrapString("Password clients must send in their connection request, empty accepts every client"))

	key = "write-buffer"
	EngineCmd.Flags().Int(key, defaults.SocketConf.WriteBufferSize/1024, cmdUtil.WrapString("The size of the socket write buffer (in KB)"))

	key = "read-buffer"
	EngineCmd.Flags().Int(key, defaults.SocketConf.ReadBufferSize/1024, cmdUtil.WrapString("The size of the socket read buffer (in KB)"))

	key = "max-frame-size"
	EngineCmd.Flags().Int(key, defaults.SocketConf.MaxFrameSize/1024, cmdUtil.WrapString("The largest accepted request frame (in KB)"))

	key = "tcp-nodelay"
	EngineCmd.Flags().Bool(key, defaults.TCPConf.TCPNoDelay, cmdUtil.WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "tcp-keepalive"
	EngineCmd.Flags().Int(key, defaults.TCPConf.TCPKeepAliveSec, cmdUtil.WrapString("The keepalive interval in seconds (tcp only)"))

	key = "tcp-linger"
	EngineCmd.Flags().Int(key, defaults.TCPConf.TCPLingerSec, cmdUtil.WrapString("The linger time in seconds, -1 keeps the os default (tcp only)"))
}

// processConfig reads the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	engineCmdConfig.Endpoint = viper.GetString("endpoint")
	engineCmdConfig.Transport = common.TransportKind(viper.GetString("transport"))
	engineCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	engineCmdConfig.WorkersPerConn = viper.GetInt("workers")
	engineCmdConfig.Password = viper.GetString("password")
	engineCmdConfig.LogLevel = viper.GetString("log-level")
	engineCmdConfig.SocketConf = common.SocketConf{
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		MaxFrameSize:    viper.GetInt("max-frame-size") * 1024,
	}
	engineCmdConfig.TCPConf = common.TCPConf{
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	return cmdUtil.InitLogging()
}

// run starts the engine and blocks until it is interrupted
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := server.NewServerTransport(*engineCmdConfig, s)
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*engineCmdConfig, t)

	// stop on interrupt, Serve returns once the listener is closed
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		<-signals
		serv.Close()
	}()

	return serv.Serve()
}
