// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [citation-id...]",
	Short: "Format citations for in-text use or as a bibliography",
	Long: `Format renders citations in the job's citation style. With --intext the
given ids are rendered as an in-text citation, e.g. (Smith, 2023) [1];
several ids form a grouped citation. Without --intext a numbered
bibliography is rendered, for all citations when no ids are given.`,
	RunE: runFormat,
}

func runFormat(cmd *cobra.Command, args []string) error {
	mgr, arc, err := openJob(cmd)
	if err != nil {
		return err
	}
	defer arc.Close()

	intext, _ := cmd.Flags().GetBool("intext")
	if intext {
		if len(args) == 0 {
			return fmt.Errorf("citation ids required for in-text formatting")
		}
		page, _ := cmd.Flags().GetString("page")
		fmt.Fprintln(os.Stdout, mgr.FormatInText(args, page))
		return nil
	}

	fmt.Fprintln(os.Stdout, mgr.FormatBibliography(args))
	return nil
}

func init() {
	formatCmd.Flags().Bool("intext", false, "render an in-text citation instead of a bibliography")
	formatCmd.Flags().String("page", "", "page number for a quoted in-text citation")

	rootCmd.AddCommand(formatCmd)
}
