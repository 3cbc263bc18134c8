package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/campusctl/campusctl/internal/account"
	"github.com/campusctl/campusctl/internal/config"
	"github.com/campusctl/campusctl/internal/discovery"
	"github.com/campusctl/campusctl/internal/field"
	"github.com/campusctl/campusctl/internal/logging"
	"github.com/campusctl/campusctl/internal/panel"
	"github.com/campusctl/campusctl/internal/server"
	"github.com/campusctl/campusctl/internal/telemetry"
	"github.com/campusctl/campusctl/internal/ui"
)

// Command flags
var (
	platformURL  string
	username     string
	outputFormat string
	scanTimeout  int
	serveAddr    string
	serveUser    string
	advertise    bool
	follow       bool
)

func init() {
	// Common flags for platform commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&platformURL, "platform", "", "Platform base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "Account username (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

// resolvePlatform merges flags, the config registry, and (as a last resort)
// mDNS discovery into a usable base URL and username.
func resolvePlatform() (baseURL, user string, reg *config.Registry, err error) {
	reg, err = config.LoadRegistry()
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	baseURL = platformURL
	if baseURL == "" {
		baseURL = reg.Platform.BaseURL
	}
	if baseURL == "" && reg.Preferences != nil && reg.Preferences.AutoDiscover {
		baseURL, err = discoverBaseURL(reg.Preferences.DiscoverTimeout)
		if err != nil {
			return "", "", nil, err
		}
	}
	if baseURL == "" {
		return "", "", nil, fmt.Errorf("no platform configured. Use --platform or set platform.base_url in the config file")
	}

	user = username
	if user == "" {
		user = reg.Platform.Username
	}
	if user == "" {
		return "", "", nil, fmt.Errorf("no username configured. Use --user or set platform.username in the config file")
	}

	return baseURL, user, reg, nil
}

// discoverBaseURL scans for a local stub server and uses it when exactly one
// answers.
func discoverBaseURL(timeoutSeconds int) (string, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 5
	}
	fmt.Println("No platform configured, attempting auto-discovery...")

	servers, err := discovery.ScanForServers(time.Duration(timeoutSeconds) * time.Second)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	if len(servers) == 0 {
		return "", nil
	}
	if len(servers) > 1 {
		fmt.Printf("Found %d servers:\n", len(servers))
		for i, srv := range servers {
			fmt.Printf("%d. %s\n", i+1, srv)
		}
		return "", fmt.Errorf("multiple servers found. Use --platform to pick one")
	}

	fmt.Printf("Found server: %s\n\n", servers[0])
	return servers[0].BaseURL(), nil
}

// resolveLayout returns the panel layout: the configured file when set,
// otherwise the compiled-in default.
func resolveLayout(reg *config.Registry, baseURL string) (*config.Layout, error) {
	if reg.Platform.LayoutFile != "" {
		return config.LoadLayoutFile(reg.Platform.LayoutFile)
	}
	return config.DefaultLayout(baseURL), nil
}

// panelCmd opens the interactive settings panel
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive settings panel",
	Long: `Open the tabbed account settings panel.

Browse your account attributes across tabs, edit them inline, and save
changes one field at a time. Each field reports its own save progress and
outcome.`,
	Example: `  # Open the panel for the configured platform
  campusctl panel
  # Or simply (panel is the default):
  campusctl

  # Point at a specific platform and account
  campusctl panel --platform https://learn.example.org --user alice`,
	RunE: runPanel,
}

func runPanel(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	baseURL, user, reg, err := resolvePlatform()
	if err != nil {
		return err
	}
	layout, err := resolveLayout(reg, baseURL)
	if err != nil {
		return err
	}

	client := account.NewClient(baseURL, user)
	tracker := telemetry.NewClickTracker(
		func() string { return baseURL + "/account/settings" },
		telemetry.ZapEmitter{},
	)

	return panel.Run(client, layout, tracker)
}

// showCmd prints account attributes
var showCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show account attributes",
	Long: `Fetch the account record and print it.

With no argument the full record is printed; with a key only that
attribute's value is printed.`,
	Example: `  # Show the whole account
  campusctl show

  # Show one attribute
  campusctl show country

  # JSON output for scripting
  campusctl show --format json

  # Print the record, then stream server events (stub server only)
  campusctl show --follow`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&follow, "follow", false, "Stream the server's event feed after printing")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	baseURL, user, _, err := resolvePlatform()
	if err != nil {
		return err
	}

	client := account.NewClient(baseURL, user)
	model, err := client.LoadAccount(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	if len(args) == 1 {
		if err := printAttribute(model, args[0]); err != nil {
			return err
		}
	} else if err := printAccount(model); err != nil {
		return err
	}

	if follow {
		return followEventFeed(baseURL)
	}
	return nil
}

// followEventFeed subscribes to the server's /ws/events feed and prints
// events until the connection closes.
func followEventFeed(baseURL string) error {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws/events"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event feed at %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close() }()

	fmt.Printf("\nFollowing %s (ctrl+c to stop)...\n\n", wsURL)
	for {
		var event server.Event
		if err := conn.ReadJSON(&event); err != nil {
			// Feed closed by the server or the connection dropped.
			return nil
		}
		fmt.Printf("%s  %-36s %v\n",
			event.Timestamp.Format(time.RFC3339), event.Type, event.Payload)
	}
}

func printAttribute(model *account.Model, key string) error {
	value, ok := model.Attributes()[key]
	if !ok {
		return fmt.Errorf("account has no attribute %q", key)
	}
	if outputFormat == "json" {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(formatValue(value))
	return nil
}

func printAccount(model *account.Model) error {
	if outputFormat == "json" {
		data, err := json.MarshalIndent(model.Attributes(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal account: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	keys := model.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%-24s %s\n", key, formatValue(model.Get(key)))
	}
	return nil
}

// formatValue renders a JSON-shaped attribute value for plain output.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// setCmd saves one attribute
var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save one account attribute",
	Long: `Save a single account attribute without opening the panel.

The value passes through the same per-field validation the panel applies:
dropdown fields only accept their option codes, the email field requires a
plausible address, and so on.`,
	Example: `  # Update the display name
  campusctl set name "Alex Q. Learner"

  # Pick a country by its option code
  campusctl set country us`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	key, value := args[0], args[1]

	baseURL, user, reg, err := resolvePlatform()
	if err != nil {
		return err
	}
	layout, err := resolveLayout(reg, baseURL)
	if err != nil {
		return err
	}

	client := account.NewClient(baseURL, user)
	model, err := client.LoadAccount(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	tabs, err := panel.Build(layout, model)
	if err != nil {
		return err
	}
	f := findField(tabs, key)
	if f == nil {
		return fmt.Errorf("the panel has no field %q", key)
	}
	if !f.Editable() {
		return fmt.Errorf("field %q is not editable", key)
	}

	if err := f.BeginEdit(); err != nil {
		return err
	}
	f.SetPending(value)

	save, err := f.Save()
	if err != nil {
		fmt.Println(ui.RenderFailure("Value rejected", err, []string{
			"Run 'campusctl show " + key + "' to see the current value",
		}))
		return fmt.Errorf("validation failed for %q", key)
	}

	f.Resolve(save.Token, save.Run(context.Background(), client))

	msg := f.Message()
	if f.State() == field.StateError {
		fmt.Println(ui.RenderFailure(msg.Text, nil, nil))
		return fmt.Errorf("failed to save %q", key)
	}

	fmt.Println(ui.RenderSuccess(msg.Text, map[string]string{
		"Field": f.Title(),
		"Value": f.Display(),
	}))
	return nil
}

// findField locates a field by key across the built tabs.
func findField(tabs []panel.Tab, key string) *field.Field {
	for _, tab := range tabs {
		for _, section := range tab.Sections {
			for _, f := range section.Fields {
				if f.Key() == key {
					return f
				}
			}
		}
	}
	return nil
}

// scanCmd discovers stub servers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for local platform servers",
	Long: `Scan for campusctl stub platform servers using mDNS/DNS-SD.

Servers started with 'campusctl serve --advertise' answer this scan.`,
	Example: `  # Scan with the default timeout
  campusctl scan

  # Quick scan
  campusctl scan --timeout 2`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for platform servers (timeout: %ds)...\n\n", scanTimeout)

	servers, err := discovery.ScanForServers(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(servers) == 0 {
		fmt.Println("No servers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Start one with 'campusctl serve --advertise'")
		fmt.Println("  - Check that mDNS traffic is allowed on this network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d server(s):\n\n", len(servers))
	for i, srv := range servers {
		fmt.Printf("%d. %s\n", i+1, srv.Instance)
		fmt.Printf("   Address: %s:%d\n", srv.IP, srv.Port)
		if len(srv.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", srv.Metadata)
		}
		fmt.Println()
	}

	fmt.Println("Use 'campusctl --platform <url>' to point the panel at a server")
	return nil
}

// serveCmd runs the stub platform server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a stub platform server",
	Long: `Run a local stub platform server for development.

The stub serves a seeded learner account with the platform's account
endpoints and broadcasts every state change on a /ws/events WebSocket feed.
With --advertise it announces itself over mDNS so 'campusctl scan' and
auto-discovery can find it.`,
	Example: `  # Serve on the default port
  campusctl serve

  # Advertise over mDNS on a custom port
  campusctl serve --addr 0.0.0.0:9000 --advertise`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", fmt.Sprintf("0.0.0.0:%d", discovery.DefaultPort), "Listen address (host:port)")
	serveCmd.Flags().StringVar(&serveUser, "serve-user", "alice", "Learner username the stub serves")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the server over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	host, portStr, err := net.SplitHostPort(serveAddr)
	if err != nil {
		return fmt.Errorf("invalid --addr %q: %w", serveAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port in --addr %q: %w", serveAddr, err)
	}

	srv, err := server.New(&server.Config{
		Host:      host,
		Port:      port,
		Username:  serveUser,
		Advertise: advertise,
		LogLevel:  "info",
	})
	if err != nil {
		return err
	}
	return srv.Start()
}
