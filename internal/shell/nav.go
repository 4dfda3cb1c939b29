package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/clicafe/clicafe/internal/config"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/vfs"
)

// rootDisplay is what pwd prints at the tree root.
const rootDisplay = "/home/clicafe"

type cdCommand struct {
	target string
}

func parseCd(a Args) (cdCommand, error) {
	if len(a.Positional) > 1 {
		return cdCommand{}, usagef("cd: too many arguments")
	}
	return cdCommand{target: a.Arg(0)}, a.Only()
}

func (d *Dispatcher) runCd(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseCd(a)
	if err != nil {
		return Result{}, err
	}
	if strings.Trim(cmd.target, "/") == ".." && s.AtRoot() {
		return lines("You are already in the root directory"), nil
	}
	node := d.opts.Catalog.Tree().Resolve(s.Segments(), cmd.target)
	if node == nil || !node.IsDir {
		return Result{}, usagef("Cannot access '%s': File or directory does not exist", cmd.target)
	}
	s.Path = vfs.SessionPath(node)
	return Result{}, nil
}

func (d *Dispatcher) runPwd(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if s.AtRoot() {
		return lines(rootDisplay), nil
	}
	return lines(s.Path), nil
}

// listDir lists a directory of the product tree, relative to the cwd.
func (d *Dispatcher) listDir(s *session.Session, target string) (Result, error) {
	tree := d.opts.Catalog.Tree()
	node := tree.Lookup(s.Segments())
	if target != "" {
		node = tree.Resolve(s.Segments(), target)
	}
	if node == nil {
		return Result{}, usagef("ls: cannot access '%s': No such file or directory", target)
	}
	if !node.IsDir {
		return lines(node.Name), nil
	}
	names, _ := tree.List(vfs.Split(node.Path))
	return lines(names...), nil
}

// catFile opens a product file of the tree.
func (d *Dispatcher) catFile(s *session.Session, target string) (Result, error) {
	node := d.opts.Catalog.Tree().Resolve(s.Segments(), target)
	if node == nil {
		return Result{}, usagef("cat: %s: No such file or directory", target)
	}
	if node.IsDir || node.Product == nil {
		return Result{}, usagef("cat: %s: Is a directory", target)
	}
	return productResult(node.Product), nil
}

func (d *Dispatcher) runColor(ctx context.Context, s *session.Session, a Args) (Result, error) {
	name := strings.ToLower(a.Arg(0))
	if name == "" || !config.ValidColor(name) {
		return Result{}, usagef("Invalid color. Options: %s", strings.Join(config.Palette, ", "))
	}
	s.Color = name
	return lines(fmt.Sprintf("Terminal color changed to %s", name)), nil
}

func (d *Dispatcher) runExit(ctx context.Context, s *session.Session, a Args) (Result, error) {
	s.Flow.Reset()
	return Result{Lines: []string{"Exiting CLIcafe Terminal..."}, Terminate: true}, nil
}
