// Copyright © 2017 NAME HERE <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/repository"
	"github.com/marpio/gallery/store"
	"github.com/spf13/cobra"
)

var out io.Writer = os.Stdout

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List id, title, category and thumbnail of every item.",
	Args:  cobra.NoArgs,
	RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tTHUMBNAIL")
		for _, s := range st.ListSummaries(ctx) {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Title, s.Category, s.Thumbnail)
		}
		return tw.Flush()
	}),
}

var getCmd = &cobra.Command{
	Use:   "get TITLE",
	Short: "Print an item.",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		it, ok := st.GetItem(ctx, args[0])
		if !ok {
			return notFound(args[0])
		}
		return printJSON(it)
	}),
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item.",
	Args:  cobra.NoArgs,
	RunE: withWritableStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		title, _ := f.GetString("title")
		category, _ := f.GetString("category")
		urls, _ := f.GetStringSlice("image")
		it, err := st.AddItem(ctx, gallery.Item{Title: title, Category: category, Images: imageRefs(urls)})
		if err != nil {
			return err
		}
		return printJSON(it)
	}),
}

var addImagesCmd = &cobra.Command{
	Use:   "add-images TITLE URL...",
	Short: "Append images to an item.",
	Args:  cobra.MinimumNArgs(2),
	RunE: withWritableStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		it, ok, err := st.AddImagesToItem(ctx, args[0], imageRefs(args[1:]))
		if !ok {
			return notFound(args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(it)
	}),
}

var updateCmd = &cobra.Command{
	Use:   "update TITLE",
	Short: "Change the title, category or images of an item.",
	Args:  cobra.ExactArgs(1),
	RunE: withWritableStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var patch gallery.ItemPatch
		if f.Changed("title") {
			t, _ := f.GetString("title")
			patch.Title = &t
		}
		if f.Changed("category") {
			c, _ := f.GetString("category")
			patch.Category = &c
		}
		if f.Changed("image") {
			urls, _ := f.GetStringSlice("image")
			images := imageRefs(urls)
			patch.Images = &images
		}
		it, ok, err := st.UpdateItem(ctx, args[0], patch)
		if !ok {
			return notFound(args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(it)
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete TITLE",
	Short: "Delete an item.",
	Args:  cobra.ExactArgs(1),
	RunE: withWritableStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		ok, err := st.DeleteItem(ctx, args[0])
		if !ok {
			return notFound(args[0])
		}
		return err
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the whole gallery document.",
	Args:  cobra.NoArgs,
	RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
		return repository.Encode(out, st.Snapshot(ctx))
	}),
}

func init() {
	addCmd.Flags().String("title", "", "item title")
	addCmd.Flags().String("category", "", "item category")
	addCmd.Flags().StringSlice("image", nil, "image url, may be repeated")
	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().String("category", "", "new category")
	updateCmd.Flags().StringSlice("image", nil, "replace the images with these urls")
	RootCmd.AddCommand(listCmd, getCmd, addCmd, addImagesCmd, updateCmd, deleteCmd, exportCmd)
}

type storeFunc func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error

func withStore(fn storeFunc) func(cmd *cobra.Command, args []string) error {
	return storeRunner(false, fn)
}

// withWritableStore refuses to run fn when the document exists but could not
// be loaded, since the next flush would overwrite it.
func withWritableStore(fn storeFunc) func(cmd *cobra.Command, args []string) error {
	return storeRunner(true, fn)
}

func storeRunner(writes bool, fn storeFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		logctx := log.WithField("cmd", "gallery-cli "+cmd.Name())
		st, closeStore, err := openStore(ctx, cfg, logctx)
		if err != nil {
			return err
		}
		defer closeStore()
		res := st.Initialize(ctx)
		if writes && !res.Writable() {
			return fmt.Errorf("refusing to change a gallery that failed to load: %w", res.Err)
		}
		if res.Degraded() {
			logctx.WithError(res.Err).Warn("gallery not loaded, continuing with an empty one")
		}
		return fn(ctx, st, cmd, args)
	}
}

func imageRefs(urls []string) []gallery.ImageRef {
	res := make([]gallery.ImageRef, 0, len(urls))
	for _, u := range urls {
		res = append(res, gallery.ImageRef{URL: u})
	}
	return res
}

func printJSON(v interface{}) error {
	en := json.NewEncoder(out)
	en.SetIndent("", "    ")
	return en.Encode(v)
}

func notFound(title string) error {
	return fmt.Errorf("no gallery item titled %q", title)
}
