package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/internal/filesystem"
	"github.com/ideaspaper/rq/internal/logger"
	"github.com/ideaspaper/rq/internal/paths"
	"github.com/ideaspaper/rq/pkg/builder"
	"github.com/ideaspaper/rq/pkg/client"
	"github.com/ideaspaper/rq/pkg/config"
	"github.com/ideaspaper/rq/pkg/executor"
	"github.com/ideaspaper/rq/pkg/models"
	"github.com/ideaspaper/rq/pkg/output"
)

// requestFlags holds the flags that are not backed by the config file.
type requestFlags struct {
	cfgFile     string
	method      string
	basic       string
	bearer      string
	data        string
	form        string
	headers     []string
	cookies     string
	noRedirects bool
	download    string
	verbose     bool
	debug       bool
	noColor     bool
}

// rootCmd represents the base command
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	f := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "rq [flags] [METHOD] <url>",
		Short: "Send a single HTTP request from the command line",
		Long: `rq builds one HTTP request from flags, sends it and prints the response.

Values for --data, --header and --cookies may name a file with a leading @.
Header files hold a JSON object of names to string values; cookie files are
sent verbatim.

Examples:
  # Simple GET
  rq https://api.example.com/users

  # POST JSON with a bearer token
  rq post https://api.example.com/users -b $TOKEN -H Content-Type=application/json -d '{"name":"alice"}'

  # Headers from a file, body from a file
  rq -X PUT https://api.example.com/users/1 -H @headers.json -d @user.json

  # Multipart upload; string values naming a file are sent as that file
  rq post https://api.example.com/upload -f '{"title":"report","file":"./report.pdf"}'

  # Show the request without sending it
  rq --debug delete https://api.example.com/users/1`,
		Version:       constants.Version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, f, args)
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringVarP(&f.method, "method", "X", "", "request method: GET, HEAD, POST, PUT, PATCH, DELETE (default GET)")
	flags.StringVarP(&f.basic, "basic", "u", "", "basic auth credentials as user:pass")
	flags.StringVarP(&f.bearer, "bearer", "b", "", "bearer token")
	flags.StringVarP(&f.data, "data", "d", "", "request body, or @file to send a file")
	flags.StringVarP(&f.form, "form", "f", "", "multipart form fields as a JSON object")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "header as Key=Value, or @file.json (repeatable)")
	flags.StringVarP(&f.cookies, "cookies", "c", "", "cookie header value, or @file")
	flags.StringP("proxy", "p", "", "proxy URL (http, https, socks5, socks5h)")
	flags.BoolVar(&f.noRedirects, "no-redirects", false, "do not follow redirects")
	flags.Bool("http2", false, "use HTTP/2 only")
	flags.IntP("timeout", "t", 0, "request timeout in seconds (0 means none)")
	flags.StringP("user-agent", "A", "", "User-Agent header (default "+constants.DefaultUserAgent+")")
	flags.StringVarP(&f.download, "download", "o", "", "save the response body to a file")
	flags.BoolP("pretty-print", "P", false, "pretty-print JSON response bodies")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print request and response metadata")
	flags.BoolVar(&f.debug, "debug", false, "print the request without sending it")
	flags.StringVar(&f.cfgFile, "config", "", "config file (default is $HOME/.rq/config.json)")
	flags.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	flags.String("log-file", "", "append diagnostics to a rotating log file")

	cmd.AddCommand(newCompletionCmd(), newUpdateCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		noColor, _ := rootCmd.Flags().GetBool("no-color")
		formatter := output.NewFormatter(useColors(true, noColor, os.Stderr))
		fmt.Fprintln(os.Stderr, formatter.FormatError(err))
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, f *requestFlags) (*config.Config, error) {
	if f.cfgFile != "" {
		return config.LoadConfigFromFile(f.cfgFile, cmd.Flags())
	}
	return config.LoadConfig(cmd.Flags())
}

// requestOptions combines the configured defaults with the request flags.
// A method given with --method wins over a positional one.
func requestOptions(cmd *cobra.Command, f *requestFlags, cfg *config.Config, args []string) *models.Options {
	methodToken, target := "", args[len(args)-1]
	if len(args) == 2 {
		methodToken = args[0]
	}
	if cmd.Flags().Changed("method") {
		methodToken = f.method
	}

	opts := cfg.Options(target)
	if methodToken != "" {
		opts.Method = models.Method(methodToken)
	}
	opts.Auth = models.Auth{Basic: f.basic, Bearer: f.bearer}
	opts.Headers = models.ParseSources(f.headers)
	if cmd.Flags().Changed("cookies") {
		opts.Cookies = models.ParseSource(f.cookies)
	}
	if cmd.Flags().Changed("data") {
		opts.Body = models.ParseSource(f.data)
	}
	opts.Form = f.form
	if f.noRedirects {
		opts.AllowRedirects = false
	}
	opts.DownloadPath = f.download
	opts.Verbose = f.verbose
	opts.Debug = f.debug
	return opts
}

func runRequest(cmd *cobra.Command, f *requestFlags, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logFile, err := paths.ExpandHome(cfg.LogFile)
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Options{
		Verbose: f.verbose,
		NoColor: !useColors(cfg.ShowColors, f.noColor, stderr),
		File:    logFile,
		Writer:  stderr,
	})
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer log.Close()
	log.Debug().Str("path", cfg.Path()).Msg("config loaded")

	opts := requestOptions(cmd, f, cfg, args)
	if opts.Method != "" && !models.IsKnownMethod(string(opts.Method)) {
		log.Warn().Str("method", string(opts.Method)).Msg("unknown method, sending GET")
	}

	httpClient, err := client.NewHttpClient(client.ConfigFromOptions(opts))
	if err != nil {
		return err
	}
	log.Debug().
		Bool("http2", opts.HTTP2Only).
		Bool("follow_redirects", opts.AllowRedirects).
		Str("proxy", opts.Proxy).
		Msg("client built")

	req, err := builder.New(filesystem.Default).Build(opts, httpClient)
	if err != nil {
		return err
	}

	// Cancel the request on Ctrl+C
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := output.NewFormatter(useColors(cfg.ShowColors, f.noColor, stdout))
	runner := executor.New(httpClient, executor.Options{
		Debug:       opts.Debug,
		Verbose:     opts.Verbose,
		Diagnostics: stderr,
		Formatter:   formatter,
		Logger:      log.Logger,
	})

	resp, err := runner.Execute(ctx, req)
	if err != nil || resp == nil {
		return err
	}

	return output.NewHandler(formatter, stdout, stderr, log.Logger).Handle(ctx, resp, output.OptionsFrom(opts))
}
