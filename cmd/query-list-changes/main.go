package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sarpt/goutils/pkg/listflag"

	"github.com/sarpt/query-list-changes/pkg/api"
)

const (
	dirFlag        = "dir"
	patternFlag    = "pattern"
	recursiveFlag  = "recursive"
	urlFlag        = "url"
	selectorFlag   = "selector"
	browserURLFlag = "browser-url"
	addrFlag       = "addr"
	allowCorsFlag  = "allow-cors"
)

var (
	dir        *listflag.StringList
	pattern    *listflag.StringList
	recursive  *bool
	pageURL    *string
	selector   *listflag.StringList
	browserURL *string
	address    *string
	allowCORS  *bool
)

func init() {
	dir = listflag.NewStringList([]string{})
	pattern = listflag.NewStringList([]string{})
	selector = listflag.NewStringList([]string{})

	flag.Var(dir, dirFlag, "directory whose files should be watched for additions. when neither dir nor url is provided, current working directory will be used")
	flag.Var(pattern, patternFlag, "file name pattern (e.g. *.mkv) of files belonging to the watched collection. when left empty, all files are watched")
	recursive = flag.Bool(recursiveFlag, false, "watch subdirectories of provided directories")
	pageURL = flag.String(urlFlag, "", "page on which elements matching selectors should be watched")
	flag.Var(selector, selectorFlag, "CSS selector of elements watched on a page provided by url")
	browserURL = flag.String(browserURLFlag, "", "DevTools websocket url of a running browser. when left empty, a local headless browser is launched")
	address = flag.String(addrFlag, "", "address on which SSE observers and REST snapshots are served. when left empty, added items are only logged")
	allowCORS = flag.Bool(allowCorsFlag, false, "when not provided, Cross Origin Site Requests will be rejected")
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := api.Config{
		Address:    *address,
		AllowCORS:  *allowCORS,
		BrowserURL: *browserURL,
	}
	server := api.NewServer(cfg)
	defer server.Close()

	directories := dir.Values()
	if len(directories) == 0 && *pageURL == "" {
		wd, err := os.Getwd()
		if err == nil {
			directories = append(directories, wd)
		}
	}

	var directoriesCfg []api.DirectoryConfig
	for _, path := range directories {
		directoriesCfg = append(directoriesCfg, api.DirectoryConfig{
			Path:      path,
			Patterns:  pattern.Values(),
			Recursive: *recursive,
		})
	}

	printWatchedDirectories(os.Stdout, directories)
	err := server.AddDirectories(directoriesCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)

		return
	}

	if *pageURL != "" {
		selectorsCfg := api.SelectorsConfig{
			PageURL:   *pageURL,
			Selectors: selector.Values(),
		}
		err = server.AddSelectors(ctx, selectorsCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)

			return
		}
	}

	err = server.Serve(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)

		return
	}
}

func printWatchedDirectories(out io.Writer, directories []string) {
	if len(directories) == 0 {
		return
	}

	fmt.Fprintf(out, "directories being watched for added files:\n%s\n", strings.Join(directories, "\n"))
}
