package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildtrack/buildtrack/internal/config"
)

var (
	callURL  string
	callList bool
)

var callCmd = &cobra.Command{
	Use:   "call <operation> [json-payload]",
	Short: "Call an operation on a running server",
	Long: `Send one operation to a running 'buildtrack serve' and print the
result envelope.

Examples:
  buildtrack call project.list
  buildtrack call worker.list '{"projectId":"01J..."}'
  buildtrack call --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if callList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callURL, "url", "", "Server base URL (default from config)")
	callCmd.Flags().BoolVar(&callList, "list", false, "List the operations the server knows")
}

func serverURL() (string, error) {
	if callURL != "" {
		return callURL, nil
	}
	cfg, err := config.Load(bootstrapPath())
	if err != nil {
		return "", err
	}
	return "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)), nil
}

func runCall(cmd *cobra.Command, args []string) error {
	base, err := serverURL()
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 30 * time.Second}

	var resp *http.Response
	if callList {
		resp, err = client.Get(base + "/rpc")
	} else {
		payload := []byte("{}")
		if len(args) == 2 {
			payload = []byte(args[1])
			if !json.Valid(payload) {
				return fmt.Errorf("payload is not valid JSON")
			}
		}
		resp, err = client.Post(base+"/rpc/"+args[0], "application/json", bytes.NewReader(payload))
	}
	if err != nil {
		return fmt.Errorf("is 'buildtrack serve' running? %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(body)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	if !callList {
		var envelope struct {
			Success bool `json:"success"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && !envelope.Success {
			return fmt.Errorf("operation %s failed", args[0])
		}
	}
	return nil
}
