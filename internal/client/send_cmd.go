package client

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/VinMeld/autopost/internal/app"
	"github.com/VinMeld/autopost/internal/form"
	"github.com/VinMeld/autopost/internal/staging"
	"github.com/VinMeld/autopost/internal/transport"
)

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().String("model", "", "vehicle model")
	submitCmd.Flags().String("price", "", "asking price")
	submitCmd.Flags().String("phone", "", "contact phone, +923XX-XXXXXXX")
	submitCmd.Flags().String("city", "", "city, one of the configured cities")
	submitCmd.Flags().StringSlice("add-city", nil, "add a city to the list before submitting")
	submitCmd.Flags().StringArrayP("image", "i", nil, "photo to attach (repeatable, in order)")
	submitCmd.Flags().Int("max-images", 0, "maximum number of photos (default from config)")
	addCredentialFlags(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a vehicle listing",
	Long: `Submit a vehicle listing with its photos.

If the stored session is missing or expired you are sent through login first,
using --email/--password, the environment, or a prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var l app.Listing
		l.Fields.Model, _ = flags.GetString("model")
		l.Fields.Price, _ = flags.GetString("price")
		l.Fields.Phone, _ = flags.GetString("phone")
		l.Fields.City, _ = flags.GetString("city")
		l.AddCities, _ = flags.GetStringSlice("add-city")
		l.Images, _ = flags.GetStringArray("image")
		l.MaxImages, _ = flags.GetInt("max-images")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		_, err := runSubmit(ctx, cmd.OutOrStdout(), l, credentialsFromFlags(cmd))
		return err
	},
}

// runSubmit renders the guarded submission view, going through login first
// when the session is gone.
func runSubmit(ctx context.Context, out io.Writer, l app.Listing, creds app.CredentialsFunc) (form.Result, error) {
	a, err := newApp(ctx)
	if err != nil {
		return form.Result{}, err
	}

	previewer, err := staging.NewTempPreviewer("")
	if err != nil {
		return form.Result{}, err
	}
	defer func() { _ = previewer.Close() }()

	a.HandleLogin(creds, out)
	view := a.NewSubmissionView(l, previewer, out)
	a.HandleProtected(transport.RouteVehicleSubmission, view)

	err = a.Run(ctx, transport.RouteVehicleSubmission)
	return view.Result(), err
}
