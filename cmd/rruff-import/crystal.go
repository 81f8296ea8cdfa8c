package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mineralkb/internal/crystal"
)

var crystalClassCmd = &cobra.Command{
	Use:   "crystal-class [id|none...]",
	Short: "Describe crystal classes",
	Long:  "Print the crystal system name, description and example minerals for each crystal class id (1-8). Without arguments every known class is listed. \"none\" describes a mineral with no recorded class.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseClassIDs(args)
		if err != nil {
			return err
		}
		for i, id := range ids {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printCrystalSystem(cmd.OutOrStdout(), id, crystal.Info(id))
		}
		return nil
	},
}

func parseClassIDs(args []string) ([]*int, error) {
	if len(args) == 0 {
		ids := make([]*int, 0, 8)
		for i := 1; i <= 8; i++ {
			id := i
			ids = append(ids, &id)
		}
		return ids, nil
	}

	ids := make([]*int, 0, len(args))
	for _, a := range args {
		if strings.EqualFold(a, "none") {
			ids = append(ids, nil)
			continue
		}
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid crystal class id %q", a)
		}
		ids = append(ids, &n)
	}
	return ids, nil
}

func printCrystalSystem(w io.Writer, id *int, sys crystal.System) {
	if id == nil {
		fmt.Fprintf(w, "none: %s\n", sys.Name)
	} else {
		fmt.Fprintf(w, "%d: %s\n", *id, sys.Name)
	}
	fmt.Fprintf(w, "  %s\n", sys.Description)
	if len(sys.Examples) > 0 {
		fmt.Fprintf(w, "  Examples: %s\n", strings.Join(sys.Examples, ", "))
	}
}
