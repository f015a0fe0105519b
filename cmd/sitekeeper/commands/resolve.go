package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Args []string `arg:"" help:"Root-relative files, or hrefs when --from is set"`
	From string   `help:"Resolve the arguments as hrefs written in this root-relative file"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root)
	if err != nil {
		return err
	}
	ignore := cleanurl.NewIgnoreList(cfg.Ignore)
	ix, err := cleanurl.BuildIndex(cfg.Site.Root, ignore)
	if err != nil {
		return err
	}

	if r.From == "" {
		for _, file := range r.Args {
			u := cleanurl.FromPath(file)
			state := "indexed"
			if !ix.Exists(u) {
				state = "not indexed"
			}
			_, _ = fmt.Fprintf(g.Out, "%s\t%s\t%s\n", file, u, state)
		}
		return nil
	}

	canon := cleanurl.NewCanonicalizer(cfg.Site.Domain, ignore)
	for _, href := range r.Args {
		link := canon.Classify(href, r.From)
		switch link.Kind {
		case cleanurl.LinkInternal:
			target := "missing"
			if file, err := ix.Lookup(link.Target); err == nil {
				target = file
			}
			_, _ = fmt.Fprintf(g.Out, "%s\t%s\t%s\t%s\n", href, link.Kind, link.Target, target)
		default:
			_, _ = fmt.Fprintf(g.Out, "%s\t%s\n", href, link.Kind)
		}
	}
	return nil
}
