package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ktpapi/internal/config"
	"ktpapi/internal/extractor"
	"ktpapi/internal/service"
)

func newExtractCmd(cfg *config.AppConfig, d deps, logger func() *slog.Logger) *cobra.Command {
	var (
		docType  string
		mimeType string
	)

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract document data from an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			image, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if mimeType == "" {
				mimeType = mimeFromPath(path)
			}

			stack, err := d.build(cmd.Context(), cfg, logger())
			if err != nil {
				return err
			}
			defer stack.Close()

			res, err := stack.Service.Extract(cmd.Context(), docType, image, mimeType)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", extractor.DocumentTypeKTP, "document type")
	cmd.Flags().StringVar(&mimeType, "mime", "", "image MIME type (default: from file extension)")
	return cmd
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List supported document types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := extractor.NewRegistry(extractor.NewKTP())
			for _, t := range registry.Types() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), t); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func mimeFromPath(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return service.DefaultMimeType
}
