package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/pitwall/sim/pace"
)

var (
	paceRowsPath string // YAML rows to import
	paceImportDB string // SQLite destination
)

// paceCmd groups pace reference maintenance commands
var paceCmd = &cobra.Command{
	Use:   "pace",
	Short: "Manage the pace reference database",
}

// paceImportCmd loads YAML pace rows into the SQLite reference store
var paceImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import pace feature rows from YAML into a SQLite database",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		rows, err := pace.LoadRows(paceRowsPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		store, err := pace.OpenStore(paceImportDB)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() { _ = store.Close() }()

		inserted, err := store.Insert(rows)
		if err != nil {
			logrus.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d of %d rows into %s (%d duplicate keys ignored)\n",
			inserted, len(rows), paceImportDB, len(rows)-inserted)
	},
}

func init() {
	paceImportCmd.Flags().StringVar(&paceRowsPath, "from", "", "YAML file with pace rows")
	paceImportCmd.Flags().StringVar(&paceImportDB, "db", "pace.db", "SQLite database to write")
	_ = paceImportCmd.MarkFlagRequired("from")

	paceCmd.AddCommand(paceImportCmd)
	rootCmd.AddCommand(paceCmd)
}
