package server

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc/server")

// Engine is a small in-memory command engine answering transport requests.
// It implements transport.IServerHandler.
type Engine struct {
	config  common.ServerConfig
	data    *keyspace
	started time.Time

	handshakes atomic.Uint64
	commands   atomic.Uint64
	closing    atomic.Bool
}

// NewEngine creates an engine with an empty keyspace
func NewEngine(config common.ServerConfig) *Engine {
	return &Engine{
		config:  config,
		data:    newKeyspace(),
		started: time.Now(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerHandler)
// --------------------------------------------------------------------------

func (e *Engine) HandleConnection(req *common.ConnectionRequest) *common.Response {
	e.handshakes.Add(1)

	if e.config.Password != "" && req.Password != e.config.Password {
		Logger.Warningf("Rejected client %q: invalid password", req.ClientName)
		return common.NewRequestErrorResponse(common.ConnectionIdx, common.ErrTUnspecified, "invalid username or password")
	}
	if req.DatabaseID != 0 {
		return common.NewRequestErrorResponse(common.ConnectionIdx, common.ErrTUnspecified,
			fmt.Sprintf("database %d does not exist", req.DatabaseID))
	}

	Logger.Debugf("Accepted client %q (%d addresses)", req.ClientName, len(req.Addresses))
	return common.NewOKResponse(common.ConnectionIdx)
}

func (e *Engine) Handle(req *common.Request) *common.Response {
	e.commands.Add(1)

	if e.closing.Load() {
		return common.NewClosingErrorResponse(req.CallbackIdx, "engine is shutting down")
	}

	switch req.RequestType {
	case common.ReqTPing:
		return e.ping(req)
	case common.ReqTEcho:
		return e.echo(req)
	case common.ReqTGet:
		return e.get(req)
	case common.ReqTSet:
		return e.set(req)
	case common.ReqTDel:
		return e.del(req)
	case common.ReqTInfo:
		return e.info(req)
	case common.ReqTCustomCommand:
		return e.custom(req)
	default:
		return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTUnspecified,
			fmt.Sprintf("unsupported request type %s", req.RequestType))
	}
}

// BeginShutdown makes every further command answer with a closing error
func (e *Engine) BeginShutdown() {
	e.closing.Store(true)
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

func (e *Engine) ping(req *common.Request) *common.Response {
	if len(req.Args) > 1 {
		return wrongArgs(req, "ping")
	}
	if len(req.Args) == 1 {
		return common.NewValueResponse(req.CallbackIdx, req.Args[0])
	}
	return common.NewValueResponse(req.CallbackIdx, []byte("PONG"))
}

func (e *Engine) echo(req *common.Request) *common.Response {
	if len(req.Args) != 1 {
		return wrongArgs(req, "echo")
	}
	return common.NewValueResponse(req.CallbackIdx, req.Args[0])
}

func (e *Engine) get(req *common.Request) *common.Response {
	if len(req.Args) != 1 {
		return wrongArgs(req, "get")
	}
	value, ok := e.data.get(string(req.Args[0]))
	if !ok {
		return common.NewNoneResponse(req.CallbackIdx)
	}
	return common.NewValueResponse(req.CallbackIdx, value)
}

// set supports SET key value [PX milliseconds]
func (e *Engine) set(req *common.Request) *common.Response {
	if len(req.Args) != 2 && len(req.Args) != 4 {
		return wrongArgs(req, "set")
	}

	var ttl time.Duration
	if len(req.Args) == 4 {
		if !strings.EqualFold(string(req.Args[2]), "PX") {
			return syntaxError(req)
		}
		ms, err := strconv.ParseInt(string(req.Args[3]), 10, 64)
		if err != nil || ms <= 0 {
			return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTUnspecified, "invalid expire time in 'set' command")
		}
		ttl = time.Duration(ms) * time.Millisecond
	}

	e.data.set(string(req.Args[0]), req.Args[1], ttl)
	return common.NewOKResponse(req.CallbackIdx)
}

func (e *Engine) del(req *common.Request) *common.Response {
	if len(req.Args) == 0 {
		return wrongArgs(req, "del")
	}
	keys := make([]string, len(req.Args))
	for i, arg := range req.Args {
		keys[i] = string(arg)
	}
	removed := e.data.del(keys...)
	return common.NewValueResponse(req.CallbackIdx, []byte(strconv.Itoa(removed)))
}

func (e *Engine) info(req *common.Request) *common.Response {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "engine:dmux\n")
	fmt.Fprintf(&buf, "os:%s\n", runtime.GOOS)
	fmt.Fprintf(&buf, "uptime_in_seconds:%d\n", int(time.Since(e.started).Seconds()))
	fmt.Fprintf(&buf, "handshakes:%d\n", e.handshakes.Load())
	fmt.Fprintf(&buf, "commands_processed:%d\n", e.commands.Load())
	fmt.Fprintf(&buf, "keys:%d\n", e.data.size())
	return common.NewValueResponse(req.CallbackIdx, buf.Bytes())
}

// custom dispatches commands by name (Args[0])
func (e *Engine) custom(req *common.Request) *common.Response {
	if len(req.Args) == 0 {
		return wrongArgs(req, "custom")
	}
	name := strings.ToUpper(string(req.Args[0]))
	args := req.Args[1:]

	switch name {
	case "SLEEP":
		// SLEEP milliseconds, answers OK after the delay
		if len(args) != 1 {
			return wrongArgs(req, "sleep")
		}
		ms, err := strconv.Atoi(string(args[0]))
		if err != nil || ms < 0 {
			return syntaxError(req)
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return common.NewOKResponse(req.CallbackIdx)
	case "PTTL":
		if len(args) != 1 {
			return wrongArgs(req, "pttl")
		}
		if _, ok := e.data.get(string(args[0])); !ok {
			return common.NewValueResponse(req.CallbackIdx, []byte("-2"))
		}
		ttl, ok := e.data.ttl(string(args[0]))
		if !ok {
			return common.NewValueResponse(req.CallbackIdx, []byte("-1"))
		}
		return common.NewValueResponse(req.CallbackIdx, []byte(strconv.FormatInt(ttl.Milliseconds(), 10)))
	case "DBSIZE":
		return common.NewValueResponse(req.CallbackIdx, []byte(strconv.Itoa(e.data.size())))
	case "ABORT":
		return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTExecAbort, "transaction discarded because of previous errors")
	case "CLOSE":
		return common.NewClosingErrorResponse(req.CallbackIdx, "connection closed by engine")
	case "ERROR":
		msg := "error"
		if len(args) > 0 {
			msg = string(bytes.Join(args, []byte(" ")))
		}
		return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTUnspecified, msg)
	default:
		return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTUnspecified,
			fmt.Sprintf("unknown command '%s'", strings.ToLower(name)))
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func wrongArgs(req *common.Request, command string) *common.Response {
	return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTUnspecified,
		fmt.Sprintf("wrong number of arguments for '%s' command", command))
}

func syntaxError(req *common.Request) *common.Response {
	return common.NewRequestErrorResponse(req.CallbackIdx, common.ErrTUnspecified, "syntax error")
}
