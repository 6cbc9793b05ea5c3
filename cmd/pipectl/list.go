package main

import (
	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/spf13/cobra"
)

// listFlags are the paging and filtering flags shared by list commands
type listFlags struct {
	page     int
	pageSize int
	search   string
	filters  []string
}

func addListFlags(cmd *cobra.Command, filterHelp string) *listFlags {
	lf := &listFlags{}
	cmd.Flags().IntVar(&lf.page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&lf.pageSize, "page-size", listview.DefaultPageSize, "Rows per page")
	cmd.Flags().StringVar(&lf.search, "search", "", "Case-insensitive text search")
	cmd.Flags().StringArrayVar(&lf.filters, "filter", nil, "Filter as key=value ("+filterHelp+")")
	return lf
}

func (lf *listFlags) query() (listview.Query, error) {
	filters, err := kv(lf.filters)
	if err != nil {
		return listview.Query{}, err
	}
	return listview.Query{
		PageNum:    lf.page,
		PageSize:   lf.pageSize,
		SearchText: lf.search,
		Filters:    filters,
	}, nil
}

// runList loads one page through a list view controller and prints it
func runList[T any](cmd *cobra.Command, lf *listFlags, view *listview.Controller[T], noun string, header []string, row func(T) []string) error {
	q, err := lf.query()
	if err != nil {
		return err
	}
	snap := view.Apply(cmd.Context(), q)
	if snap.Err != nil {
		return snap.Err
	}
	return printSnapshot(cmd.OutOrStdout(), noun, snap, header, row)
}
