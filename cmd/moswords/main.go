package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moswords/config"
	"moswords/internal/blob"
	"moswords/internal/cipher"
	"moswords/internal/client"
	"moswords/internal/conversation"
	"moswords/internal/gateway"
	"moswords/internal/metrics"
	"moswords/internal/securecache"
	"moswords/pkg/logger"
)

const usage = `usage: moswords <command> [flags]

commands:
  whoami                               print this device's id and public key
  open      -to u1,u2 <scope>          make the conversation key available
  send      -to u1,u2 <scope> <text>   encrypt and post a message
  read      [-limit n] <scope>         list and decrypt messages
  send-file -to u1,u2 <scope> <path>   encrypt and upload a file, print its reference
  get-file  <scope> <ref.json> <out>   download and decrypt a file

scopes look like channel:<id>, group:<id> or dm:<user>:<user>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	v, err := config.LoadConfig("config")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}
	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dev, closeFn, err := openDevice(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to open device: %v", err)
	}
	defer closeFn()

	if err := run(ctx, dev, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openDevice(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*client.Device, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Device.CachePath), 0o700); err != nil {
		return nil, nil, err
	}
	store, err := securecache.OpenSQLite(ctx, cfg.Device.CachePath)
	if err != nil {
		return nil, nil, err
	}

	var cache securecache.Cache = store
	if cfg.Device.CachePassphrase != "" {
		sealed, err := securecache.NewSealed(ctx, store, []byte(cfg.Device.CachePassphrase))
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		cache = sealed
	}

	// without an endpoint send-file and get-file fail with ErrNoFileStorage
	var files cipher.FileTransport
	if cfg.Minio.Endpoint != "" {
		m, err := blob.NewMinio(ctx, cfg.Minio, appLogger)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("file storage: %w", err)
		}
		files = m
	}

	dev := client.New(client.Options{
		Server:  gateway.NewClient(cfg.Device.ServerURL, cfg.Device.Token, nil),
		Cache:   cache,
		Files:   files,
		Metrics: metrics.New(),
		Logger:  appLogger,
	})
	return dev, func() { store.Close() }, nil
}

func run(ctx context.Context, dev *client.Device, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	to := fs.String("to", "", "comma separated recipient user ids")
	limit := fs.Int("limit", 50, "number of messages to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recipients := splitList(*to)

	id, err := dev.Start(ctx)
	if err != nil {
		return err
	}

	switch cmd {
	case "whoami":
		fmt.Printf("device %s\npublic key %s\n", id.DeviceID, hex.EncodeToString(id.PublicKey[:]))
		return nil

	case "open":
		scope, err := scopeArg(fs, 1)
		if err != nil {
			return err
		}
		return dev.Open(ctx, scope, recipients)

	case "send":
		scope, err := scopeArg(fs, 2)
		if err != nil {
			return err
		}
		msg, err := dev.Send(ctx, scope, recipients, fs.Arg(1))
		if err != nil {
			return err
		}
		fmt.Println(msg.ID)
		return nil

	case "read":
		scope, err := scopeArg(fs, 1)
		if err != nil {
			return err
		}
		msgs, err := dev.Read(ctx, scope, *limit)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Printf("%s  %s  %s\n", m.SentAt.Local().Format(time.DateTime), m.SenderID, m.Text)
		}
		return nil

	case "send-file":
		scope, err := scopeArg(fs, 2)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(fs.Arg(1))
		if err != nil {
			return err
		}
		ref, err := dev.Cipher.UploadFile(ctx, scope, recipients, filepath.Base(fs.Arg(1)), data)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(ref)

	case "get-file":
		scope, err := scopeArg(fs, 3)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(fs.Arg(1))
		if err != nil {
			return err
		}
		var ref cipher.FileRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return err
		}
		data, ok := dev.Cipher.DownloadFile(ctx, scope, ref)
		if !ok {
			return fmt.Errorf("%s could not be decrypted", ref.Key)
		}
		return os.WriteFile(fs.Arg(2), data, 0o600)

	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func scopeArg(fs *flag.FlagSet, want int) (conversation.Scope, error) {
	if fs.NArg() != want {
		return conversation.Scope{}, fmt.Errorf("%s takes %d arguments", fs.Name(), want)
	}
	return conversation.Parse(fs.Arg(0))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
