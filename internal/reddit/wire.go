package reddit

import (
	"encoding/json"
	"time"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// Thing kinds used by the Reddit API.
const (
	kindComment    = "t1"
	kindSubmission = "t3"
	kindMore       = "more"
)

type listing struct {
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type submissionData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
}

func (d submissionData) toModel() models.Submission {
	return models.Submission{
		ID:          d.ID,
		Title:       d.Title,
		Selftext:    d.Selftext,
		Author:      d.Author,
		CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
		NumComments: d.NumComments,
	}
}

type commentData struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	// Replies is a nested listing, or the empty string when there are none.
	Replies json.RawMessage `json:"replies"`
}

func (d commentData) toModel() models.Comment {
	return models.Comment{
		ID:       d.ID,
		ParentID: d.ParentID,
		Author:   d.Author,
		Body:     d.Body,
	}
}

type moreData struct {
	Count    int      `json:"count"`
	ParentID string   `json:"parent_id"`
	Children []string `json:"children"`
}

func (d moreData) toModel() models.MorePlaceholder {
	return models.MorePlaceholder{
		Count:    d.Count,
		ParentID: d.ParentID,
		Children: d.Children,
	}
}

type moreChildrenResponse struct {
	JSON struct {
		Data struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// flattenTree walks a comment-tree listing depth first, appending comments
// and unresolved placeholders to the thread in traversal order.
func flattenTree(children []thing, thread *models.Thread) error {
	for _, child := range children {
		switch child.Kind {
		case kindComment:
			var data commentData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return err
			}
			thread.Comments = append(thread.Comments, data.toModel())

			if isListing(data.Replies) {
				var replies listing
				if err := json.Unmarshal(data.Replies, &replies); err != nil {
					return err
				}
				if err := flattenTree(replies.Data.Children, thread); err != nil {
					return err
				}
			}
		case kindMore:
			var data moreData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return err
			}
			thread.More = append(thread.More, data.toModel())
		}
	}
	return nil
}

// isListing reports whether a replies field holds a nested listing rather
// than the empty string the API uses for leaves.
func isListing(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '{'
}
