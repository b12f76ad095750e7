package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/schema"
	"github.com/vk/qresgo/internal/symexpr"
)

// print renders the final routine on the output writer in the configured
// format.
func (a *App) print(r *model.Routine[symexpr.Expr]) error {
	if a.config.Format == "json" {
		data, err := schema.ExportJSON(r, a.engine)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.outW, string(data))
		return err
	}
	return a.printText(r)
}

func (a *App) printText(r *model.Routine[symexpr.Expr]) error {
	fmt.Fprintf(a.outW, "routine %s\n", r.Name)
	if len(r.InputParams) > 0 {
		fmt.Fprintf(a.outW, "input params: %v\n", r.InputParams)
	}

	tw := tabwriter.NewWriter(a.outW, 2, 4, 2, ' ', 0)
	if len(r.Resources) > 0 {
		fmt.Fprintln(tw, "resource\ttype\tvalue")
		for _, name := range r.SortedResourceNames() {
			res := r.Resources[name]
			fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Name, res.Type, a.engine.Serialize(res.Value))
		}
	}
	if len(r.Ports) > 0 {
		fmt.Fprintln(tw, "port\tdirection\tsize")
		for _, name := range r.SortedPortNames() {
			port := r.Ports[name]
			size := "?"
			if port.Size != nil {
				size = a.engine.Serialize(*port.Size)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", port.Name, port.Direction, size)
		}
	}
	return tw.Flush()
}
