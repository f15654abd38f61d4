package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "Upload photos and attach them to visits",
}

var photosPresignCmd = &cobra.Command{
	Use:   "presign <object-key>",
	Short: "Generate a presigned S3 upload URL",
	Long: `Generate a presigned S3 PUT URL for uploading a photo.

The bucket and region come from the s3.bucket and s3.region config
keys; credentials come from the standard AWS credential chain.

Example:
  jobber photos presign visits/V-1/site.jpg --expires 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runPhotosPresign,
}

var photosAttachCmd = &cobra.Command{
	Use:   "attach <visit-id> <photo-url>...",
	Short: "Attach uploaded photos to a visit",
	Long: `Attach already-uploaded photos to a Jobber visit as a note with
markdown links.

Example:
  jobber photos attach V-7 https://bucket.s3.amazonaws.com/before.jpg \
    --title "Site photos"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPhotosAttach,
}

var (
	photosExpires time.Duration
	photosTitle   string
)

func init() {
	photosPresignCmd.Flags().DurationVar(&photosExpires, "expires", time.Hour,
		"How long the upload URL stays valid")
	photosAttachCmd.Flags().StringVar(&photosTitle, "title", "",
		"Note title (default Photos)")

	photosCmd.AddCommand(photosPresignCmd)
	photosCmd.AddCommand(photosAttachCmd)
	rootCmd.AddCommand(photosCmd)
}

func runPhotosPresign(cmd *cobra.Command, args []string) error {
	photos, err := getPhotoService(cmd.Context())
	if err != nil {
		return err
	}

	url, err := photos.PresignUpload(cmd.Context(), args[0], photosExpires)
	if err != nil {
		return err
	}

	cmd.Println(url)
	return nil
}

func runPhotosAttach(cmd *cobra.Command, args []string) error {
	photos, err := getPhotoService(cmd.Context())
	if err != nil {
		return err
	}

	_, err = photos.AttachToVisit(cmd.Context(), args[0], args[1:], photosTitle)
	if err != nil {
		return err
	}

	cmd.Printf("Attached %d photos to visit %s.\n", len(args)-1, args[0])
	return nil
}
