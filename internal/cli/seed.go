package cli

import (
	"log"

	"edu-quiz-service/internal/app"
	"github.com/spf13/cobra"
)

// NewSeedCmd writes the sample content for keys that are still absent.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write sample subjects, levels, topics and questions if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			// loadRuntime already seeds unless store.seed is false.
			if !rt.cfg.SeedEnabled() {
				if err := rt.content.SeedIfMissing(cmd.Context(), app.DefaultSeed()); err != nil {
					return err
				}
			}
			log.Printf("content seeded (store=%s)", rt.cfg.Store.Backend)
			return nil
		},
	}
}
