package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/komsync/internal/config"
	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/mediaserver"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
)

// clearLine clears the spinner line from the terminal
const clearLine = "\r                                        \r"

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change settings",
	}
	cmd.AddCommand(newConfigSetCmd(e), newConfigShowCmd(e), newConfigLoginCmd(e), newConfigClearCmd(e))
	return cmd
}

func newConfigSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key and save the config file",
		Example: `  komsync config set server.url http://192.168.1.100:25600
  komsync config set preferences.show_on_deck false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if key == "server.url" {
				if err := detectWithSpinner(cmd.Context(), cmd.ErrOrStderr(), e, value); err != nil {
					return err
				}
			}

			e.settings.Set(key, value)
			if err := e.settings.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s saved\n", key)
			return nil
		},
	}
}

func newConfigShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Print the effective configuration, or a single key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				value := e.settings.Get(args[0])
				if value == nil {
					return fmt.Errorf("unknown key %q", args[0])
				}
				if args[0] == "server.password" && value != "" {
					value = "********"
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			cfg := *e.cfg
			if cfg.Server.Password != "" {
				cfg.Server.Password = "********"
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func newConfigLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Prompt for the server credentials and save them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())

			fmt.Fprint(out, "Username: ")
			username, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return fmt.Errorf("failed to read input: %w", err)
			}

			password, err := readPassword(out, reader)
			if err != nil {
				return err
			}

			e.settings.Set("server.username", strings.TrimSpace(username))
			e.settings.Set("server.password", password)
			if err := e.settings.Save(); err != nil {
				return err
			}
			fmt.Fprintln(out, "✓ Credentials saved")
			return nil
		},
	}
}

func newConfigClearCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the server settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.settings.ClearServerConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Server settings cleared")
			return nil
		},
	}
}

// readPassword reads without echo from a terminal, and as a plain line
// otherwise (piped input)
func readPassword(out io.Writer, reader *bufio.Reader) (string, error) {
	fmt.Fprint(out, "Password: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(passwordBytes), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// candidateServer points the saved settings at a URL that is not saved yet
type candidateServer struct {
	domain.Settings
	serverURL string
}

func (c candidateServer) APIBaseURL() (string, bool) {
	return config.APIBase(c.serverURL)
}

// detectWithSpinner checks the server is a Komga server with a visual spinner,
// then signs in with the saved credentials
func detectWithSpinner(ctx context.Context, out io.Writer, e *env, serverURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		if err := mediaserver.DetectKomga(ctx, e.transport, serverURL); err != nil {
			resultCh <- err
			return
		}
		client := komga.NewClient(e.transport, candidateServer{Settings: e.settings, serverURL: serverURL}, e.logger)
		resultCh <- client.Ping(ctx)
	}()

	frames := spinner.MiniDot.Frames
	frame := 0
	fmt.Fprintf(out, "\r%s Checking server...", frames[frame])

	ticker := time.NewTicker(spinner.MiniDot.FPS)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Fprint(out, clearLine)
			if err != nil {
				return fmt.Errorf("could not verify server: %w", err)
			}
			fmt.Fprintln(out, "✓ Detected: Komga")
			return nil

		case <-ticker.C:
			frame++
			fmt.Fprintf(out, "\r%s Checking server...", frames[frame%len(frames)])

		case <-ctx.Done():
			fmt.Fprint(out, clearLine)
			return fmt.Errorf("detection timed out")
		}
	}
}
