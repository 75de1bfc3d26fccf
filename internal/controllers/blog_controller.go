package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/utils"
)

type BlogController struct {
	DB *gorm.DB
}

type blogRequest struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Excerpt     *string    `json:"excerpt"`
	Content     *string    `json:"content"`
	CoverImage  *string    `json:"cover_image"`
	VideoURL    *string    `json:"video_url"`
	Author      *string    `json:"author"`
	Category    *string    `json:"category"`
	Tags        []string   `json:"tags"`
	Status      *string    `json:"status" binding:"omitempty,oneof=draft published"`
	PublishedAt *time.Time `json:"published_at"`
}

func (bc *BlogController) PublicList(c *gin.Context) {
	lq := newListQuery(c, "title", "published_at")
	lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", models.BlogStatusPublished) })
	lq.Search("title", "excerpt", "content")
	lq.Equal(c, "category", "category")
	respondList[models.BlogPost](c, bc.DB, lq)
}

// PublicGet resolves a published post by id or slug.
func (bc *BlogController) PublicGet(c *gin.Context) {
	key := strings.TrimSpace(c.Param("id"))
	q := bc.DB.Where("status = ?", models.BlogStatusPublished)
	if _, err := uuid.Parse(key); err == nil {
		q = q.Where("id = ?", key)
	} else {
		q = q.Where("slug = ?", strings.ToLower(key))
	}
	var post models.BlogPost
	if err := q.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "blog post not found"})
			return
		}
		internalError(c, "load blog post", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (bc *BlogController) List(c *gin.Context) {
	lq := newListQuery(c, "title", "slug", "status", "category", "author", "published_at")
	lq.Search("title", "slug", "excerpt", "author")
	lq.Equal(c, "status", "status")
	lq.Equal(c, "category", "category")
	if err := lq.DateRange(c, "published_at", false, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.BlogPost](c, bc.DB, lq)
}

func (bc *BlogController) Get(c *gin.Context) {
	getByID[models.BlogPost](c, bc.DB, "blog post")
}

func (bc *BlogController) Create(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	post := models.BlogPost{Status: models.BlogStatusDraft}
	if u, ok := currentUser(c); ok {
		post.Author = u.FullName
	}
	if err := req.apply(&post); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(post.Tags) == 0 {
		post.Tags = datatypes.JSON("[]")
	}
	if err := bc.DB.Create(&post).Error; err != nil {
		writeError(c, "create blog post", "slug already exists", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": post.ID, "slug": post.Slug})
}

func (bc *BlogController) Update(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, ok := loadByID[models.BlogPost](c, bc.DB, "blog post")
	if !ok {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
		return
	}
	if err := req.apply(post); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := bc.DB.Save(post).Error; err != nil {
		writeError(c, "update blog post", "slug already exists", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated", "slug": post.Slug})
}

// UpdateStatus publishes or unpublishes a post, stamping published_at on first publish.
func (bc *BlogController) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != models.BlogStatusDraft && status != models.BlogStatusPublished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status, expected one of draft, published"})
		return
	}
	post, ok := loadByID[models.BlogPost](c, bc.DB, "blog post")
	if !ok {
		return
	}
	post.Status = status
	stampPublished(post)
	if err := bc.DB.Save(post).Error; err != nil {
		internalError(c, "update blog post status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (bc *BlogController) Delete(c *gin.Context) {
	deleteByID[models.BlogPost](c, bc.DB, "blog post")
}

func (bc *BlogController) BulkDelete(c *gin.Context) {
	bulkDelete[models.BlogPost](c, bc.DB, "blog posts")
}

func (r *blogRequest) apply(p *models.BlogPost) error {
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.Excerpt != nil {
		p.Excerpt = *r.Excerpt
	}
	if r.Content != nil {
		html, err := utils.RenderMarkdown(*r.Content)
		if err != nil {
			return errors.New("content is not valid markdown")
		}
		p.Content = *r.Content
		p.ContentHTML = html
	}
	if r.CoverImage != nil {
		p.CoverImage = strings.TrimSpace(*r.CoverImage)
	}
	if r.VideoURL != nil {
		p.VideoURL = strings.TrimSpace(*r.VideoURL)
	}
	if r.Author != nil {
		p.Author = strings.TrimSpace(*r.Author)
	}
	if r.Category != nil {
		p.Category = strings.TrimSpace(*r.Category)
	}
	if r.Tags != nil {
		tags := make([]string, 0, len(r.Tags))
		for _, t := range r.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		b, err := json.Marshal(tags)
		if err != nil {
			return err
		}
		p.Tags = datatypes.JSON(b)
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if r.PublishedAt != nil {
		t := r.PublishedAt.UTC()
		p.PublishedAt = &t
	}

	switch {
	case r.Slug != nil && strings.TrimSpace(*r.Slug) != "":
		p.Slug = utils.Slugify(*r.Slug)
	case p.Slug == "":
		p.Slug = utils.Slugify(p.Title)
	}
	if p.Slug == "" {
		return errors.New("slug cannot be derived from title, provide one")
	}
	stampPublished(p)
	return nil
}

func stampPublished(p *models.BlogPost) {
	if p.Status == models.BlogStatusPublished && p.PublishedAt == nil {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
}
