package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/boardctl/internal/api"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List boards known to the dashboard",
	RunE:  runBoards,
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	boards, err := client.ListBoards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}
	if len(boards) == 0 {
		fmt.Println("No boards found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tCONFIRMED")
	for _, b := range boards {
		confirmed := "no"
		if b.GoalConfirmed {
			confirmed = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, orDash(b.BoardType), confirmed)
	}
	return w.Flush()
}
