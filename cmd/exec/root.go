package exec

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dMux/cmd/util"
	"github.com/ValentinKolb/dMux/rpc/client"
	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/spf13/cobra"
)

var (
	// ExecCmd sends a single command to the engine and prints the result
	ExecCmd = &cobra.Command{
		Use:   "exec [command] [args...]",
		Short: "Execute a single command on the engine",
		Long: `Execute a single command on the engine and print the result.

Known commands (get, set, del, ping, echo, info) are sent with their request type,
every other command is sent as a custom command with the name as first argument
(e.g. "dmux exec sleep 100").`,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setup,
		RunE:              run,
	}
)

func init() {
	util.SetupClientFlags(ExecCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return util.InitLogging()
}

func run(cmd *cobra.Command, args []string) error {
	config, err := util.GetClientConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, closeClient, err := util.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer closeClient()

	requestType, cmdArgs := ParseCommand(args)
	value, err := c.Execute(ctx, requestType, client.Args(cmdArgs...)...)
	if err != nil {
		return err
	}

	fmt.Println(FormatValue(value))
	return nil
}

// ParseCommand maps a command line onto a request type and its arguments.
// Unknown commands become custom commands carrying their name as first argument.
func ParseCommand(args []string) (common.RequestType, []string) {
	requestType := common.ParseRequestType(strings.ToLower(args[0]))
	if requestType == common.ReqTCustomCommand {
		return requestType, args
	}
	return requestType, args[1:]
}

// FormatValue renders a result the way the cli prints it
func FormatValue(value []byte) string {
	if value == nil {
		return "(nil)"
	}
	return fmt.Sprintf("%q", value)
}
