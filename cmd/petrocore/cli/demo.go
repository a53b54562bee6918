package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jobala/petrocore/buffer"
	"github.com/jobala/petrocore/config"
	"github.com/jobala/petrocore/hash"
	"github.com/jobala/petrocore/storage/disk"
	"github.com/jobala/petrocore/trie"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func (c *RootCommand) initDemo() {
	c.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Runs a short insert/get/delete session against a fresh pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(c.DBPath)
		},
	})
}

func runDemo(dbPath string) error {
	tun := config.MustLoad()

	dm, err := disk.NewManager(afero.NewOsFs(), dbPath)
	if err != nil {
		return err
	}
	defer dm.Shutdown()

	scheduler, err := disk.NewScheduler(dm)
	if err != nil {
		return err
	}
	defer scheduler.Shutdown(context.Background())

	bpm := buffer.NewPoolManager(tun.PoolSize, tun.LRUK, scheduler)

	table, err := hash.New[string, string]("demo", bpm, nil, tun.HeaderMaxDepth, tun.DirectoryMaxDepth, tun.BucketMaxSize)
	if err != nil {
		return err
	}

	table.Insert("alpha", "first")
	table.Insert("beta", "second")
	table.Insert("gamma", "third")

	for _, k := range []string{"alpha", "beta", "gamma"} {
		v, ok := table.Get(k)
		fmt.Printf("get %q -> %q, %v\n", k, v, ok)
	}

	table.Remove("beta")
	_, ok := table.Get("beta")
	fmt.Printf("after removing %q, present=%v\n", "beta", ok)

	var tags trie.Trie[int]
	t1 := tags.Put([]byte("ab"), 1)
	t2 := t1.Put([]byte("ac"), 2)
	fmt.Printf("trie demo: t1 has \"ac\"=%v, t2 has \"ac\"=%v\n", has(t1, "ac"), has(t2, "ac"))

	bpm.FlushAllPages()
	fmt.Printf("flushed resident pages of a %s pool to %s\n", humanize.Bytes(uint64(disk.PageSize*tun.PoolSize)), dbPath)
	return nil
}

func has(t *trie.Trie[int], key string) bool {
	_, ok := t.Get([]byte(key))
	return ok
}
