package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kanakanji/anco-go/internal/config"
	"github.com/kanakanji/anco-go/pkg/anco"
	"github.com/kanakanji/anco-go/pkg/anco/kana"
)

var errNotKana = errors.New("input is not kana")

// ConvertCmd converts its arguments, or each stdin line when there are none.
type ConvertCmd struct {
	Encoding string `short:"e" long:"encoding" description:"stdin encoding: utf-8, shift_jis, euc-jp, iso-2022-jp (default from config)"`
	Strict   bool   `long:"strict" description:"reject input that is not hiragana or katakana"`
	Raw      bool   `long:"raw" description:"print the whole engine buffer instead of trimming at NUL"`

	app *app
}

func (c *ConvertCmd) Execute(args []string) error {
	cfg, err := c.app.loadConfig()
	if err != nil {
		return err
	}
	if c.Raw {
		cfg.TrimAtNUL = false
	}
	name := c.Encoding
	if name == "" {
		name = cfg.InputEncoding
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.app.client(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if len(args) > 0 {
		for _, text := range args {
			if err := c.convertLine(ctx, client, text); err != nil {
				return err
			}
		}
		return nil
	}

	interactive := isTerminal(c.app.in)
	scanner := bufio.NewScanner(transform.NewReader(c.app.in, enc.NewDecoder()))
	for {
		if interactive {
			fmt.Fprint(c.app.err, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if err := c.convertLine(ctx, client, line); err != nil {
			if interactive && !isFatal(err) {
				fmt.Fprintf(c.app.err, "error: %v\n", err)
				continue
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (c *ConvertCmd) convertLine(ctx context.Context, client *anco.Client, text string) error {
	if c.Strict && !kana.IsKana(text) {
		return fmt.Errorf("%w: %q", errNotKana, text)
	}
	out, err := client.ConvertContext(ctx, text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.app.out, out)
	return err
}

// isFatal reports errors after which the client must not be used again.
func isFatal(err error) bool {
	return errors.Is(err, anco.ErrBufferOverrun) || errors.Is(err, anco.ErrClosed)
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	canonical, ok := config.CanonicalEncoding(name)
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	switch canonical {
	case "shift_jis":
		return japanese.ShiftJIS, nil
	case "euc-jp":
		return japanese.EUCJP, nil
	case "iso-2022-jp":
		return japanese.ISO2022JP, nil
	}
	return unicode.UTF8, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
