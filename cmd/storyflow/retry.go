package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry failed backend writes",
	Long: `Retry flushes the dirty set: stories whose last backend write failed
are written again. Stories that fail again stay dirty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		before := len(sess.store.Dirty())
		sess.store.Retry(cmd.Context())
		after := len(sess.store.Dirty())

		fmt.Printf("Retried %d dirty stories; %d still dirty\n", before, after)
		return nil
	},
}
