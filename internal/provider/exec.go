package provider

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Handle is what a successful start hands back to the supervisor: the one
// fact it needs to track the child across invocations.
type Handle struct {
	PID int
}

// StartOptions carries the environment and output destinations for a spawn.
// Writers may be nil, in which case the child's output is discarded.
type StartOptions struct {
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Start launches the provider's declared start command detached from the
// calling process and returns once the OS has assigned a pid. The child is
// expected to outlive this invocation of the tool; the supervisor owns its
// lifecycle from here via the persisted pid.
func (p *Package) Start(ctx context.Context, opts StartOptions) (Handle, error) {
	cs, ok := p.caps[CapStart]
	if !ok {
		return Handle{}, fmt.Errorf("provider %s: %w", p.name, ErrNoCapability)
	}
	cmd := p.command(cs, opts.Env)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return Handle{}, fmt.Errorf("start %s: %w", p.name, err)
	}
	// Reap the child if it exits while this invocation is still alive
	// (serve mode); after we exit it is re-parented and reaped by init.
	go func() { _ = cmd.Wait() }()
	return Handle{PID: cmd.Process.Pid}, nil
}

// Run executes the provider's run capability in the foreground and waits for
// it to finish. Used by the command layer to hand test files to a provider.
func (p *Package) Run(ctx context.Context, args []string, opts StartOptions) error {
	cs, ok := p.caps[CapRun]
	if !ok {
		return fmt.Errorf("provider %s: %w", p.name, ErrNoCapability)
	}
	cmd := p.commandContext(ctx, cs, opts.Env, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", p.name, err)
	}
	return nil
}

// Health executes the provider's health capability; a zero exit means healthy.
func (p *Package) Health(ctx context.Context) error {
	cs, ok := p.caps[CapHealth]
	if !ok {
		return fmt.Errorf("provider %s: %w", p.name, ErrNoCapability)
	}
	cmd := p.commandContext(ctx, cs, nil)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("health %s: %w", p.name, err)
	}
	return nil
}

func (p *Package) command(cs CommandSpec, env []string) *exec.Cmd {
	// #nosec G204 -- command comes from a validated on-disk manifest
	cmd := exec.Command(cs.Command, cs.Args...)
	cmd.Dir = p.dir
	cmd.Env = mergeEnv(env, cs.Env)
	return cmd
}

func (p *Package) commandContext(ctx context.Context, cs CommandSpec, env []string, extra ...string) *exec.Cmd {
	args := append(append([]string(nil), cs.Args...), extra...)
	// #nosec G204 -- command comes from a validated on-disk manifest
	cmd := exec.CommandContext(ctx, cs.Command, args...)
	cmd.Dir = p.dir
	cmd.Env = mergeEnv(env, cs.Env)
	return cmd
}
