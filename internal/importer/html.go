package importer

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML into items. Document
// order is preserved: the returned slice lists each level's children in
// the order they appear in the file, which seeds the store's sibling
// positions.
func ParseHTMLBookmarks(r io.Reader) ([]model.Item, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var items []model.Item

	// Track current folder stack for hierarchy
	var folderStack []*string
	var pendingFolder *string // folder ID waiting to be pushed on next DL

	parentID := func() *string {
		if len(folderStack) == 0 {
			return nil
		}
		return folderStack[len(folderStack)-1]
	}

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				// Folder definition - name from text content
				name := getTextContent(n)
				if name != "" {
					folder := model.NewItem(model.NewItemParams{
						Title:    name,
						Kind:     model.ItemFolder,
						ParentID: parentID(),
					})
					items = append(items, folder)

					// Pending until we see the folder's DL
					id := folder.ID
					pendingFolder = &id
				}
				return // Don't recurse into H3

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					// Skip bookmarks without URL
					return
				}

				title := getTextContent(n)
				if title == "" {
					title = href // fallback to URL as title
				}

				items = append(items, model.NewItem(model.NewItemParams{
					Title:    title,
					URL:      href,
					Kind:     model.ItemLeaf,
					ParentID: parentID(),
				}))
				return // Don't recurse into A

			case "dl":
				// Definition list - marks folder contents
				pushedFolder := false
				if pendingFolder != nil {
					folderStack = append(folderStack, pendingFolder)
					pendingFolder = nil
					pushedFolder = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushedFolder && len(folderStack) > 0 {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return // Children handled above
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return items, nil
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
