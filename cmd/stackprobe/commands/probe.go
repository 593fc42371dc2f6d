package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackprobe/stackprobe/pkg/objstore"
)

func newProbeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe the object store",
		Long:  `Point probes against the object store: existence, content, and writes.`,
	}

	cmd.AddCommand(newProbeExistsCommand())
	cmd.AddCommand(newProbeGetCommand())
	cmd.AddCommand(newProbePutCommand())
	return cmd
}

func newProbeExistsCommand() *cobra.Command {
	var bucket, key string

	cmd := &cobra.Command{
		Use:   "exists",
		Short: "Check whether an object exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			probe, err := newProbe(cmd)
			if err != nil {
				return err
			}
			found, err := probe.Exists(cmd.Context(), bucket, key)
			if err != nil {
				return err
			}
			fmt.Println(found)
			if !found {
				os.Exit(1)
			}
			return nil
		},
	}
	addObjectFlags(cmd, &bucket, &key)
	return cmd
}

func newProbeGetCommand() *cobra.Command {
	var bucket, key string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print an object's content",
		RunE: func(cmd *cobra.Command, args []string) error {
			probe, err := newProbe(cmd)
			if err != nil {
				return err
			}
			content, ok := probe.Content(cmd.Context(), bucket, key)
			if !ok {
				return fmt.Errorf("cannot retrieve s3://%s/%s", bucket, key)
			}
			fmt.Print(content)
			return nil
		},
	}
	addObjectFlags(cmd, &bucket, &key)
	return cmd
}

func newProbePutCommand() *cobra.Command {
	var bucket, key, body, file string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Upload an object",
		RunE: func(cmd *cobra.Command, args []string) error {
			probe, err := newProbe(cmd)
			if err != nil {
				return err
			}
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				return probe.Put(cmd.Context(), bucket, key, f)
			}
			return probe.Put(cmd.Context(), bucket, key, strings.NewReader(body))
		},
	}
	addObjectFlags(cmd, &bucket, &key)
	cmd.Flags().StringVar(&body, "body", "", "inline object body")
	cmd.Flags().StringVar(&file, "file", "", "file to upload (overrides --body)")
	return cmd
}

func newProbe(cmd *cobra.Command) (*objstore.Probe, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	clients, _, err := newAWSClients(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return objstore.FromClient(clients.s3, logger), nil
}

func addObjectFlags(cmd *cobra.Command, bucket, key *string) {
	cmd.Flags().StringVarP(bucket, "bucket", "b", "", "bucket name")
	cmd.Flags().StringVarP(key, "key", "k", "", "object key")
	cmd.MarkFlagRequired("bucket")
	cmd.MarkFlagRequired("key")
}
