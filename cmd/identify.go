package cmd

import (
	"encoding/json"

	"identity-service/internal/models"
	"identity-service/internal/service"

	"github.com/spf13/cobra"
)

var (
	identifyEmail string
	identifyPhone string
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Reconcile one contact against the configured store",
	Long: `Runs a single identify request against the configured store and prints
the consolidated contact as JSON.`,
	Example: `  identity-service identify --email mcfly@hillvalley.edu --phone 123456`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logg, store, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()
		defer store.Close()

		var email, phone *string
		if cmd.Flags().Changed("email") {
			email = &identifyEmail
		}
		if cmd.Flags().Changed("phone") {
			phone = &identifyPhone
		}

		resp, err := service.NewReconciliationService(store, logg).
			Identify(cmd.Context(), models.NewIdentifyRequest(email, phone))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	identifyCmd.Flags().StringVar(&identifyEmail, "email", "", "email address to reconcile")
	identifyCmd.Flags().StringVar(&identifyPhone, "phone", "", "phone number to reconcile")
}
