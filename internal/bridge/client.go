package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// Client is the external-call boundary the translated program links
// against. Every operation returns either a value or a structured *Error;
// no operation faults.
type Client interface {
	CallFunction(target string, args []Value, kwargs map[string]Value) (Value, *Error)
	CallMethod(target Value, method string, args []Value, kwargs map[string]Value) (Value, *Error)
	GetAttribute(target Value, name string) (Value, *Error)
	GetItem(target Value, key Value) (Value, *Error)
	Slice(target Value, start, stop, step *Value) (Value, *Error)
	Iter(target Value) (Value, *Error)
	Delete(target Value) *Error
	Close() error
}

// StdioClient talks newline-delimited JSON to a worker subprocess. All
// traffic is serialized under one mutex: the protocol is strictly
// request/response.
type StdioClient struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	session string
	version *semver.Version
	modules map[string]string
}

// Dial launches the worker command and performs the hello exchange. The
// worker's announced protocol version must satisfy constraint (for example
// "^1.7") or the dial fails before any command is sent.
func Dial(workerCmd []string, constraint string) (*StdioClient, error) {
	if len(workerCmd) == 0 {
		return nil, fmt.Errorf("bridge: empty worker command")
	}
	check, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("bridge: bad protocol constraint %q: %w", constraint, err)
	}

	cmd := exec.Command(workerCmd[0], workerCmd[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("bridge: launching worker: %w", err)
	}

	c := &StdioClient{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdout),
		session: uuid.NewString(),
		modules: make(map[string]string),
	}

	resp, berr := c.roundTripRaw(command{Cmd: cmdHello, SessionID: c.session, ReqID: uuid.NewString()})
	if berr != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bridge: hello: %s", berr.Error())
	}
	ver, err := semver.NewVersion(resp.Version)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bridge: worker announced unparseable version %q", resp.Version)
	}
	if !check.Check(ver) {
		_ = c.Close()
		return nil, fmt.Errorf("bridge: worker protocol %s does not satisfy %s", ver, constraint)
	}
	c.version = ver
	return c, nil
}

// ProtocolVersion reports the version negotiated at dial time.
func (c *StdioClient) ProtocolVersion() string {
	if c.version == nil {
		return ""
	}
	return c.version.String()
}

// Import registers a module alias so delegated calls can resolve it.
func (c *StdioClient) Import(module, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if alias == "" {
		alias = module
	}
	c.modules[alias] = module
}

// ResolveModule looks up the module behind an alias.
func (c *StdioClient) ResolveModule(alias string) (Value, *Error) {
	c.mu.Lock()
	name, ok := c.modules[alias]
	c.mu.Unlock()
	if !ok {
		return Value{}, protocolErrf("module alias %q not registered", alias)
	}
	return ModuleRef(name), nil
}

func (c *StdioClient) CallFunction(target string, args []Value, kwargs map[string]Value) (Value, *Error) {
	return c.roundTrip(command{
		Cmd:       cmdCallFunction,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    target,
		Args:      emptyIfNil(args),
		Kwargs:    kwargs,
	})
}

func (c *StdioClient) CallMethod(target Value, method string, args []Value, kwargs map[string]Value) (Value, *Error) {
	ref, err := targetRef(target)
	if err != nil {
		return Value{}, err
	}
	return c.roundTrip(command{
		Cmd:       cmdCallMethod,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    ref,
		Method:    method,
		Args:      emptyIfNil(args),
		Kwargs:    kwargs,
	})
}

func (c *StdioClient) GetAttribute(target Value, name string) (Value, *Error) {
	ref, err := targetRef(target)
	if err != nil {
		return Value{}, err
	}
	return c.roundTrip(command{
		Cmd:       cmdGetAttribute,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    ref,
		Name:      name,
	})
}

func (c *StdioClient) GetItem(target Value, key Value) (Value, *Error) {
	ref, err := targetRef(target)
	if err != nil {
		return Value{}, err
	}
	return c.roundTrip(command{
		Cmd:       cmdGetItem,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    ref,
		Key:       &key,
	})
}

func (c *StdioClient) Slice(target Value, start, stop, step *Value) (Value, *Error) {
	ref, err := targetRef(target)
	if err != nil {
		return Value{}, err
	}
	return c.roundTrip(command{
		Cmd:       cmdSlice,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    ref,
		Start:     orNone(start),
		Stop:      orNone(stop),
		Step:      orNone(step),
	})
}

func (c *StdioClient) Iter(target Value) (Value, *Error) {
	ref, err := targetRef(target)
	if err != nil {
		return Value{}, err
	}
	return c.roundTrip(command{
		Cmd:       cmdIter,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    ref,
	})
}

func (c *StdioClient) Delete(target Value) *Error {
	ref, err := targetRef(target)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(command{
		Cmd:       cmdDelete,
		SessionID: c.session,
		ReqID:     uuid.NewString(),
		Target:    ref,
	})
	return err
}

// Close terminates the worker. The translated program calls it once at
// shutdown; outstanding handles die with the session.
func (c *StdioClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdin != nil {
		_ = c.stdin.Close()
		c.stdin = nil
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
	return nil
}

func (c *StdioClient) roundTrip(cmd command) (Value, *Error) {
	resp, err := c.roundTripRaw(cmd)
	if err != nil {
		return Value{}, err
	}
	return resp.Value, nil
}

func (c *StdioClient) roundTripRaw(cmd command) (*response, *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdin == nil {
		return nil, crashErrf("worker is closed")
	}

	line, err := json.Marshal(cmd)
	if err != nil {
		return nil, protocolErrf("encoding %s: %v", cmd.Cmd, err)
	}
	if _, err := c.stdin.Write(append(line, '\n')); err != nil {
		return nil, crashErrf("writing to worker: %v", err)
	}

	reply, err := c.stdout.ReadBytes('\n')
	if err != nil {
		return nil, crashErrf("worker closed stdout before replying to %s", cmd.Cmd)
	}

	var resp response
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, protocolErrf("decoding reply to %s: %v", cmd.Cmd, err)
	}
	switch resp.Kind {
	case "ok":
		if resp.ReqID != "" && cmd.ReqID != "" && resp.ReqID != cmd.ReqID {
			return nil, protocolErrf("reply req_id %q does not match request %q", resp.ReqID, cmd.ReqID)
		}
		return &resp, nil
	case "error":
		if resp.Error == nil {
			return nil, protocolErrf("error reply without detail")
		}
		return nil, classify(resp.Error.Code, resp.Error.Message, resp.Error.PyType, resp.Error.Traceback)
	default:
		return nil, protocolErrf("unknown reply kind %q", resp.Kind)
	}
}

func emptyIfNil(args []Value) []Value {
	if args == nil {
		return []Value{}
	}
	return args
}

func orNone(v *Value) *Value {
	if v == nil {
		n := None()
		return &n
	}
	return v
}
