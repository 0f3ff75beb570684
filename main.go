package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bridgeim/bridgeclient/account"
	"github.com/bridgeim/bridgeclient/chatlog"
	"github.com/bridgeim/bridgeclient/rest"
	"github.com/bridgeim/bridgeclient/ws"
)

var (
	flagServer    = flag.String("server", "http://127.0.0.1:8000", "bridge server base url, http(s)://host:port")
	flagStateFile = flag.String("state-file", "bridgeclient.db", "local session state file")
	flagChat      = flag.Int64("chat", 0, "chat id to open; 0 opens no conversation")

	flagLogin    = flag.String("login", "", "log in as email:password, saved to the session ring")
	flagRegister = flag.String("register", "", "register as email:username:password")
	flagAccount  = flag.Int64("account", 0, "switch the active session to this user id")

	flagMetricsAddr    = flag.String("metrics-addr", "127.0.0.1:8001", "prometheus metrics address, ip:port")
	flagDisableMetrics = flag.Bool("disable-metrics", false, "disable prometheus metrics")
	flagPprofDir       = flag.String("pprof-dir", "pprof", "dir to save pprof data files")
)

func main() {
	flag.Parse()

	// NOTE: os.Exit() does not call defers.
	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	if v := validateFlags(); v > 0 {
		return v
	}

	pid := os.Getpid()

	pprofDir := filepath.Join(*flagPprofDir, strconv.Itoa(pid))
	if err := os.MkdirAll(pprofDir, 0750); err != nil {
		return errorf("--pprof-dir: error create dir `%s`: %v", pprofDir, err)
	}
	defer func() {
		_ = os.RemoveAll(pprofDir)
	}()

	backend, err := account.OpenBolt(*flagStateFile)
	if err != nil {
		return errorf("state file `%s`: %v", *flagStateFile, err)
	}
	defer backend.Close()

	accounts := account.NewStore(backend)
	accounts.Load()

	client := rest.NewClient(*flagServer, accounts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if v := establishSession(ctx, client, accounts); v > 0 {
		return v
	}

	active, ok := accounts.Active()
	if !ok {
		return errorf("no active session; use --login or --register first")
	}
	glog.Infof("active session: user %d (%s), %d of %d slots used",
		active.Identity.ID, active.Identity.DisplayName, len(accounts.List()), account.MaxSessions)

	// the server may have newer identity fields than the saved copy
	if err := client.RefreshIdentity(ctx); err != nil {
		glog.Errorf("refresh identity: %v", err)
		if _, ok := accounts.Active(); !ok {
			return errorf("saved session was rejected by the server; log in again")
		}
	}

	if !*flagDisableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		))
		go func() {
			if err := http.ListenAndServe(*flagMetricsAddr, mux); err != nil {
				glog.Errorf("metrics server: %v", err)
			}
		}()
	}

	var owner ws.Owner
	defer owner.CloseAll()

	if *flagChat > 0 {
		if v := openConversation(ctx, client, accounts, &owner); v > 0 {
			return v
		}
	}

	glog.Infof("bridgeclient is running")
	glog.Infof("`kill -USR1 %d` to dump goroutines; `kill -USR2 %d` to start/stop profiler; `CTRL+c` or `kill %d` to stop", pid, pid, pid)

	var stopping bool

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM, syscall.SIGINT)

	var prof *Profiler

	for sig := range sigCh {
		switch sig {
		case syscall.SIGUSR1:
			dumpGoroutines(pprofDir)
		case syscall.SIGUSR2:
			if prof == nil {
				prof = StartProfiler(pprofDir)
			} else {
				prof.Stop()
				prof = nil
			}
		case syscall.SIGTERM, syscall.SIGINT:
			if stopping {
				glog.Infof("bridgeclient is already stopping")
				continue
			}
			stopping = true
			glog.Infof("received signal `%s`, stopping", sig.String())
			go func() {
				if prof != nil {
					prof.Stop()
				}
				cancel()
				owner.CloseAll()
				signal.Stop(sigCh)
				close(sigCh)
			}()
		}
	}

	glog.Info("bridgeclient exited")
	return 0
}

// establishSession applies --login, --register and --account against
// the saved session ring.
func establishSession(ctx context.Context, client *rest.Client, accounts *account.Store) int {
	if *flagLogin != "" {
		email, password, _ := strings.Cut(*flagLogin, ":")
		s, err := client.Login(ctx, email, password)
		if err != nil {
			return errorf("login: %v", err)
		}
		glog.Infof("logged in as user %d (%s)", s.Identity.ID, s.Identity.DisplayName)
	}

	if *flagRegister != "" {
		email, rest2, _ := strings.Cut(*flagRegister, ":")
		username, password, _ := strings.Cut(rest2, ":")
		s, err := client.Register(ctx, email, password, username, username)
		if err != nil {
			return errorf("register: %v", err)
		}
		glog.Infof("registered as user %d (%s)", s.Identity.ID, s.Identity.DisplayName)
	}

	if *flagAccount > 0 {
		accounts.SetActive(*flagAccount)
		if accounts.ActiveID() != *flagAccount {
			return errorf("--account: no saved session for user %d", *flagAccount)
		}
	}
	return 0
}

// openConversation loads the chat history, mounts the realtime channel
// and wires stdin as the outgoing message source.
func openConversation(ctx context.Context, client *rest.Client, accounts *account.Store, owner *ws.Owner) int {
	cache := chatlog.NewCache()
	rec := chatlog.NewReconciler(cache, client, *flagChat)
	rec.OnAppend = func(m *chatlog.Message) {
		fmt.Printf("[chat %d] %d: %s\n", m.ChatID, m.SenderID, m.Content)
	}

	if err := rec.Load(ctx); err != nil {
		return errorf("load chat %d: %v", *flagChat, err)
	}
	glog.Infof("chat %d: loaded %d messages", *flagChat, cache.Len(*flagChat))

	ch, err := owner.Open(ctx, ws.Config{
		BaseURL: *flagServer,
		ChatID:  *flagChat,
		Tokens:  accounts,
		Sink:    rec,
	})
	if err != nil {
		return errorf("open channel: %v", err)
	}
	rec.SetAnnouncer(ch)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if _, err := rec.SendMessage(ctx, line, chatlog.TypeText); err != nil {
				glog.Errorf("send: %v", err)
			}
		}
	}()
	return 0
}

func validateFlags() int {
	u, err := url.Parse(*flagServer)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errorf("--server: invalid base url `%s`", *flagServer)
	}
	if *flagStateFile == "" {
		return errorf("--state-file is required")
	}
	if *flagPprofDir == "" {
		return errorf("--pprof-dir is required")
	}

	if *flagLogin != "" && *flagRegister != "" {
		return errorf("--login and --register are mutually exclusive")
	}
	if *flagLogin != "" && !strings.Contains(*flagLogin, ":") {
		return errorf("--login expects email:password")
	}
	if *flagRegister != "" && strings.Count(*flagRegister, ":") != 2 {
		return errorf("--register expects email:username:password")
	}

	if !*flagDisableMetrics {
		if err := validateAddr(*flagMetricsAddr); err != nil {
			return errorf("--metrics-addr: %v", err)
		}
	}
	return 0
}

func validateAddr(s string) error {
	ips, _, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("error split host port from `%s`: %v", s, err)
	}
	ip := net.ParseIP(ips)
	if ip == nil {
		return fmt.Errorf("error parse IP from host `%s`", ips)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("`%s` is not loopback or private address", ips)
	}
	return nil
}

func errorf(fmt string, args ...interface{}) int {
	glog.Errorf(fmt, args...)
	return 1
}
