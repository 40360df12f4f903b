package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"herald/internal/config"
	"herald/internal/ipc"
)

type commandContext struct {
	projectFlag *string

	scopeOnce sync.Once
	scope     config.Scope
	scopeErr  error

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(projectFlag *string) *commandContext {
	return &commandContext{projectFlag: projectFlag}
}

func (c *commandContext) ensureScope() (config.Scope, error) {
	c.scopeOnce.Do(func() {
		var project string
		if c.projectFlag != nil {
			project = strings.TrimSpace(*c.projectFlag)
		}
		c.scope, c.scopeErr = config.ResolveScope(project)
	})
	return c.scope, c.scopeErr
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		scope, err := c.ensureScope()
		if err != nil {
			c.configErr = err
			return
		}
		cfg, _, _, err := config.Load(scope)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// childArgs builds the argument vector for a detached daemon process so the
// child resolves the same scope as the parent.
func (c *commandContext) childArgs() []string {
	args := []string{"daemon", "run"}
	if c.projectFlag != nil {
		if project := strings.TrimSpace(*c.projectFlag); project != "" {
			args = append(args, "--project", project)
		}
	}
	return args
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	scope, err := c.ensureScope()
	if err != nil {
		return nil, err
	}
	socket := scope.SocketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `herald start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}
