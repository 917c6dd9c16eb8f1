package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedPost struct {
	title    string
	content  string
	category string
	tags     []string
	featured bool
	daysAgo  int
}

var seedCategories = []service.CategoryInput{
	{Name: "Travel", Description: "Itineraries and field notes", Color: "#0ea5e9", Icon: "plane"},
	{Name: "Food", Description: "Street food and recipes", Color: "#f97316", Icon: "utensils"},
	{Name: "Gear", Description: "Reviews of the kit we carry", Color: "#22c55e", Icon: "backpack"},
}

var seedPosts = []seedPost{
	{
		title:    "Kyoto on a Budget",
		content:  "## Getting around\n\nBuy a **bus day pass** and walk the Philosopher's Path early.\n\n## Where to sleep\n\nMachiya guesthouses beat chain hotels on price and charm.",
		category: "Travel",
		tags:     []string{"Japan", "Budget"},
		featured: true,
		daysAgo:  2,
	},
	{
		title:    "The Best Street Food in Bangkok",
		content:  "Start at Yaowarat after dark. Order the *crispy pork* and a bowl of boat noodles.",
		category: "Food",
		tags:     []string{"Thailand", "Street Food"},
		daysAgo:  6,
	},
	{
		title:    "A Carry-on Only Packing List",
		content:  "1. One 35L pack\n2. Merino everything\n3. A universal adapter\n\nEverything else is optional.",
		category: "Gear",
		tags:     []string{"Packing", "Budget"},
		daysAgo:  11,
	},
	{
		title:    "Lisbon Trams Explained",
		content:  "Tram 28 is famous and crowded. Ride it at 8am or take the 12E instead.",
		category: "Travel",
		tags:     []string{"Portugal"},
		daysAgo:  19,
	},
}

const seedAboutPage = "## About us\n\nWe are a small team writing honest travel guides.\n\n- No sponsored rankings\n- Every place visited in person"

type seedSummary struct {
	Categories int
	Posts      int
	Skipped    bool
}

func seedCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "populate an empty database with demo content",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if email == "" {
				email = cfg.AdminEmail
			}
			summary, err := seedDemoData(cmd.Context(), db.DB, email)
			if err != nil {
				return err
			}
			if summary.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "posts already exist, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d posts\n", summary.Categories, summary.Posts)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "author", "", "email of the account that owns the demo posts (defaults to ADMIN_EMAIL)")
	return cmd
}

// seedDemoData 在空库中写入分类、文章与 about 页；已有文章时直接跳过。
func seedDemoData(ctx context.Context, gdb *gorm.DB, authorEmail string) (seedSummary, error) {
	var summary seedSummary

	var existing int64
	if err := gdb.WithContext(ctx).Model(&db.Post{}).Count(&existing).Error; err != nil {
		return summary, err
	}
	if existing > 0 {
		summary.Skipped = true
		return summary, nil
	}

	author, err := seedAuthor(ctx, gdb, authorEmail)
	if err != nil {
		return summary, err
	}

	categories := service.NewCategoryService(gdb)
	categoryIDs := make(map[string]uint, len(seedCategories))
	for _, input := range seedCategories {
		category, err := categories.Create(ctx, input)
		if err != nil {
			if !errors.Is(err, service.ErrConflict) {
				return summary, fmt.Errorf("seed category %s: %w", input.Name, err)
			}
			var found db.Category
			if err := gdb.WithContext(ctx).Where("slug = ?", service.Slugify(input.Name)).First(&found).Error; err != nil {
				return summary, err
			}
			category = &found
		} else {
			summary.Categories++
		}
		categoryIDs[input.Name] = category.ID
	}

	posts := service.NewPostService(gdb)
	now := time.Now().UTC()
	for _, seed := range seedPosts {
		categoryID := categoryIDs[seed.category]
		publishedAt := now.AddDate(0, 0, -seed.daysAgo)
		if _, err := posts.Create(ctx, author.ID, service.PostInput{
			Title:       seed.title,
			Content:     seed.content,
			Status:      db.PostStatusPublished,
			Featured:    seed.featured,
			CategoryID:  &categoryID,
			Tags:        seed.tags,
			PublishedAt: &publishedAt,
		}); err != nil {
			return summary, fmt.Errorf("seed post %q: %w", seed.title, err)
		}
		summary.Posts++
	}

	if _, err := service.NewPageService(gdb).Save(ctx, "about", service.PageInput{Title: "About", Content: seedAboutPage}); err != nil {
		return summary, fmt.Errorf("seed about page: %w", err)
	}

	logger.Info("demo data seeded", zap.Int("categories", summary.Categories), zap.Int("posts", summary.Posts))
	return summary, nil
}

// seedAuthor 优先使用指定邮箱的账号，否则取第一个用户。
func seedAuthor(ctx context.Context, gdb *gorm.DB, email string) (*db.User, error) {
	var user db.User
	query := gdb.WithContext(ctx).Order("id ASC")
	if email != "" {
		query = query.Where("email = ?", email)
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("no user to own demo posts, run create-user first")
		}
		return nil, err
	}
	return &user, nil
}
