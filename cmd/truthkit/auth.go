package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"truthkit/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Truth Social access tokens",
	Long: `Manage stored Truth Social access tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variable (TRUTHKIT_TOKEN, read-only fallback)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Store an access token securely",
	Long: `Store a Truth Social access token in the system keychain or an
encrypted file. The token is read from stdin without echoing.

If no label is given the token is stored under the default account.`,
	Example: `  # Store the default token
  truthkit auth login

  # Store a token under a named account
  truthkit auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [label]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runAuthList,
}

// whoamiCmd represents the auth whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the stored token against the API",
	Run:   runWhoami,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("failed to initialize credential manager", err)
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = strings.TrimSpace(args[0])
	}

	if existing, _ := manager.Retrieve(label); existing != nil {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Account %q already exists. Update token? (y/N): ", label)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Access token (hidden): ")
	token, err := readSecret()
	if err != nil {
		fatal("failed to read token", err)
	}
	if token == "" {
		fatal("token is required", nil)
	}

	cred := &auth.Credential{
		Label:        label,
		Token:        token,
		LastModified: time.Now(),
	}
	if err := manager.Store(cred); err != nil {
		fatal("failed to store token", err)
	}

	fmt.Printf("Token stored for account %q\n", label)
	fmt.Println("\nQuick start:")
	fmt.Println("  truthkit crawl statuses <handle> --limit 20")
	fmt.Println("  truthkit post \"hello\" --visibility public")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("failed to initialize credential manager", err)
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = strings.TrimSpace(args[0])
	}

	if err := manager.Delete(label); err != nil {
		fatal("failed to remove account "+label, err)
	}
	fmt.Printf("Account removed: %s\n", label)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("failed to initialize credential manager", err)
	}

	creds, err := manager.List()
	if err != nil {
		fatal("failed to list accounts", err)
	}
	if len(creds) == 0 {
		fmt.Println("No stored accounts. Use 'truthkit auth login' to add one.")
		return
	}

	for i, cred := range creds {
		fmt.Printf("%d. %s\n", i+1, cred.Label)
		fmt.Printf("   Token: %s\n", maskToken(cred.Token))
		if !cred.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", cred.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
}

func runWhoami(cmd *cobra.Command, args []string) {
	session, _, _, err := newSession()
	if err != nil {
		fatal("failed to open session", err)
	}

	account, err := session.VerifyCredentials(cmd.Context())
	if err != nil {
		fatal("token rejected", err)
	}

	fmt.Printf("Logged in as @%s (%s)\n", account.Username, account.ID)
	if snap := session.RateLimit(); snap.Known {
		fmt.Printf("Rate limit: %d remaining of %d, resets %s\n",
			snap.Remaining, snap.Limit, snap.ResetAt.Format(time.RFC3339))
	}
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// readSecret reads a line from stdin without echoing when attached to a
// terminal, falling back to plain reads for piped input.
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
