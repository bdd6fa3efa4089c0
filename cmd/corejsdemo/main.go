// Command corejsdemo is a minimal entry point: it wires the runtime's
// packages together through internal/engine and exercises one
// operation from each, proving the module links and the bindings work
// end to end. This is a smoke check, not a product surface.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fluxedge/corejs/clone"
	"github.com/fluxedge/corejs/fetch"
	"github.com/fluxedge/corejs/internal/engine"
	"github.com/fluxedge/corejs/resolver"
	"github.com/fluxedge/corejs/streams"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("corejsdemo: %v", err)
	}
}

func run() error {
	eng, err := engine.New(engine.Config{
		MemoryLimitMB:    64,
		FetchTimeoutSec:  10,
		MaxResponseBytes: 1 << 20,
	}, resolver.NewOSFileSystem(""), "node")
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer eng.Close()

	if err := eng.Eval(`globalThis.__corejsDemoUUID = __cryptoRandomUUID();`); err != nil {
		return fmt.Errorf("engine eval: %w", err)
	}
	log.Printf("engine: crypto/fetch/resolver bindings registered")

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	res := resolver.New(resolver.NewOSFileSystem(""), "node")
	if path, err := res.Resolve(".", wd, false, nil); err != nil {
		log.Printf("resolver: %v", err)
	} else {
		log.Printf("resolver: %q -> %q", wd, path)
	}

	root := clone.NewObject()
	root.Set("hello", &clone.Value{Kind: clone.KindString, Str: "world"})
	cloned, err := clone.Clone(root, nil)
	if err != nil {
		return fmt.Errorf("structuredClone: %w", err)
	}
	log.Printf("structuredClone: cloned %d top-level keys", len(cloned.Keys))

	n := 0
	src, err := streams.NewReadableStream(streams.DefaultSource{
		Pull: func(c *streams.DefaultController) error {
			n++
			if n > 3 {
				c.Close()
				return nil
			}
			return c.Enqueue(n)
		},
	})
	if err != nil {
		return fmt.Errorf("streams: %w", err)
	}
	reader, err := src.GetReader()
	if err != nil {
		return fmt.Errorf("streams: %w", err)
	}
	var chunks []int
	for {
		done := false
		reader.Read(streams.ReadRequest{
			ChunkSteps: func(chunk any) { chunks = append(chunks, chunk.(int)) },
			CloseSteps: func() { done = true },
			ErrorSteps: func(err error) { log.Printf("streams: %v", err) },
		})
		if done {
			break
		}
	}
	log.Printf("streams: read %v", chunks)

	resp, err := fetch.Do(context.Background(), fetch.Options{
		URL: "data:text/plain,hello%20from%20corejs",
	})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	log.Printf("fetch: %s", resp.Body)

	return nil
}
