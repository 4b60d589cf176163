package client

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// InitUploadResponse represents the upload-url API response.
type InitUploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

// DownloadURLResponse represents the download-url API response.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// UploadCmd creates the kb upload command.
func UploadCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "upload <source_id> <path>",
		Short: "Upload content for a file source",
		Long:  "Requests a presigned upload URL, uploads the file, and marks the source active.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(args[0], args[1], contentType, outputJSON)
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type (detected from extension if omitted)")

	return cmd
}

func runUpload(sourceID, path, contentType string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	resp, err := api.Post(fmt.Sprintf("/knowledge-bases/%s/file/upload-url", sourceID), map[string]string{
		"file_name":    filepath.Base(path),
		"content_type": contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to request upload URL: %w", err)
	}

	var initResp InitUploadResponse
	if err := json.Unmarshal(resp.Data, &initResp); err != nil {
		return fmt.Errorf("failed to parse upload URL response: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var progress ProgressFunc
	if !outputJSON {
		progress = func(current, total int64) {
			if total > 0 {
				fmt.Printf("\rUploading... %d%%", current*100/total)
			}
		}
	}

	if err := api.UploadReaderWithProgress(initResp.UploadURL, file, stat.Size(), contentType, progress); err != nil {
		return err
	}
	if !outputJSON {
		fmt.Println()
	}

	resp, err = api.Post(fmt.Sprintf("/knowledge-bases/%s/file/complete", sourceID), nil)
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}

	var source Source
	if err := json.Unmarshal(resp.Data, &source); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(source, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded %s to knowledge source %s (status: %s)\n", filepath.Base(path), source.ID, source.Status)
	}

	return nil
}

// DownloadCmd creates the kb download command.
func DownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <source_id>",
		Short: "Download the stored file of a file source",
		Long:  "Requests a presigned download URL and saves the file locally.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "", "Output path (defaults to the stored file name)")

	return cmd
}

func runDownload(sourceID, outputPath string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/knowledge-bases/%s/file/download-url", sourceID))
	if err != nil {
		return fmt.Errorf("failed to request download URL: %w", err)
	}

	var dlResp DownloadURLResponse
	if err := json.Unmarshal(resp.Data, &dlResp); err != nil {
		return fmt.Errorf("failed to parse download URL response: %w", err)
	}

	if outputPath == "" {
		srcResp, err := api.Get(fmt.Sprintf("/knowledge-bases/%s", sourceID))
		if err != nil {
			return fmt.Errorf("failed to get knowledge source: %w", err)
		}
		var source Source
		if err := json.Unmarshal(srcResp.Data, &source); err != nil {
			return fmt.Errorf("failed to parse knowledge source: %w", err)
		}
		outputPath = filepath.Base(source.FilePath)
		if outputPath == "" || outputPath == "." {
			outputPath = sourceID
		}
	}

	if err := api.DownloadFile(dlResp.DownloadURL, outputPath); err != nil {
		return err
	}

	fmt.Printf("Downloaded to %s\n", outputPath)
	return nil
}
