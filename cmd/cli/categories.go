package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dvloznov/nett/internal/domain"
)

const categoriesUsage = `usage: cli categories <list|add|rename|delete|show-sub|add-sub|edit-sub|delete-sub> [options]
  list                                          List categories and subcategories
  add -name NAME                                Add a category
  rename -id ID -name NAME                      Rename a category
  delete -id ID                                 Delete a category and its subcategories
  show-sub -id ID                               Show one subcategory
  add-sub -category ID -name NAME [-description TEXT]
  edit-sub -id ID -name NAME [-description TEXT]
  delete-sub -id ID`

type categoryClient interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	RenameCategory(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error
	GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error)
	CreateSubcategory(ctx context.Context, s domain.Subcategory) (*domain.Subcategory, error)
	UpdateSubcategory(ctx context.Context, s domain.Subcategory) error
	DeleteSubcategory(ctx context.Context, id string) error
}

func runCategories(s *session, args []string) error {
	ctx, cancel := s.commandContext(commandTimeout)
	defer cancel()
	return categoriesCommand(ctx, s.client, os.Stdout, args)
}

func categoriesCommand(ctx context.Context, c categoryClient, w io.Writer, args []string) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("categories "+action, flag.ContinueOnError)
	fs.SetOutput(w)
	id := fs.String("id", "", "Category or subcategory ID")
	name := fs.String("name", "", "Name")
	description := fs.String("description", "", "Subcategory description")
	category := fs.String("category", "", "Parent category ID")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	need := func(vals ...string) error {
		for _, v := range vals {
			if v == "" {
				return errors.New(categoriesUsage)
			}
		}
		return nil
	}

	switch action {
	case "list":
		cats, err := c.ListCategories(ctx)
		if err != nil {
			return err
		}
		return printCategories(w, cats)

	case "add":
		if err := need(*name); err != nil {
			return err
		}
		cat, err := c.CreateCategory(ctx, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Category %s created (%s).\n", cat.Name, cat.ID)

	case "rename":
		if err := need(*id, *name); err != nil {
			return err
		}
		if err := c.RenameCategory(ctx, *id, *name); err != nil {
			return err
		}
		fmt.Fprintf(w, "Category %s renamed to %s.\n", *id, *name)

	case "delete":
		if err := need(*id); err != nil {
			return err
		}
		if err := c.DeleteCategory(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(w, "Category %s deleted.\n", *id)

	case "show-sub":
		if err := need(*id); err != nil {
			return err
		}
		sub, err := c.GetSubcategory(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sub.ID, sub.Name, sub.CategoryID, sub.Description)

	case "add-sub":
		if err := need(*category, *name); err != nil {
			return err
		}
		sub, err := c.CreateSubcategory(ctx, domain.Subcategory{Name: *name, Description: *description, CategoryID: *category})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Subcategory %s created (%s).\n", sub.Name, sub.ID)

	case "edit-sub":
		if err := need(*id, *name); err != nil {
			return err
		}
		if err := c.UpdateSubcategory(ctx, domain.Subcategory{ID: *id, Name: *name, Description: *description}); err != nil {
			return err
		}
		fmt.Fprintf(w, "Subcategory %s updated.\n", *id)

	case "delete-sub":
		if err := need(*id); err != nil {
			return err
		}
		if err := c.DeleteSubcategory(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(w, "Subcategory %s deleted.\n", *id)

	default:
		return errors.New(categoriesUsage)
	}
	return nil
}

func printCategories(w io.Writer, cats []domain.Category) error {
	if len(cats) == 0 {
		_, err := fmt.Fprintln(w, "No categories.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tSUBCATEGORY\tDESCRIPTION")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t\t\n", c.ID, c.Name)
		for _, s := range c.Subcategories {
			fmt.Fprintf(tw, "%s\t\t%s\t%s\n", s.ID, s.Name, s.Description)
		}
	}
	return tw.Flush()
}
