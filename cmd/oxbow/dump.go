package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"oxbow/internal/driver"
	"oxbow/internal/hir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump crate.yaml",
	Short: "Print the lowered declarations or the export of one crate",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("what", "hir", "what to print (hir|export)")
	dumpCmd.Flags().String("format", "json", "export encoding (json|yaml|msgpack)")
	dumpCmd.Flags().Bool("no-lints", false, "disable unused-binding warnings")
}

func runDump(cmd *cobra.Command, args []string) error {
	what, _ := cmd.Flags().GetString("what")
	format, _ := cmd.Flags().GetString("format")
	noLints, _ := cmd.Flags().GetBool("no-lints")

	s := driver.NewSession(driver.Options{Jobs: 1, NoLints: noLints})
	if _, err := s.LoadFile(args[0]); err != nil {
		return err
	}
	res, err := s.Resolve(cmd.Context(), s.Crates()[0])
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	w := cmd.OutOrStdout()
	switch what {
	case "hir":
		if res.HIR == nil {
			return errors.New("crate was not lowered")
		}
		return hir.Dump(w, res.HIR, res.Types.ItemTypeString)
	case "export":
		exp, err := driver.BuildExport(res)
		if err != nil {
			return err
		}
		return writeExport(w, exp, format)
	}
	return fmt.Errorf("invalid --what %q (expected hir|export)", what)
}

func writeExport(w io.Writer, exp *driver.Export, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(exp); err != nil {
			return err
		}
		return enc.Close()
	case "msgpack":
		data, err := exp.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("invalid --format %q (expected json|yaml|msgpack)", format)
}
