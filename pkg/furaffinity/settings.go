package furaffinity

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

func inputValue(doc *goquery.Document, name string) *string {
	sel := doc.Find(`input[name="` + name + `"]`).First()
	if sel.Length() == 0 {
		return nil
	}
	v := sel.AttrOr("value", "")
	return &v
}

func selectedOption(sel *goquery.Selection) *string {
	if sel.Length() == 0 {
		return nil
	}
	opt := sel.Find("option[selected]").First()
	if opt.Length() == 0 {
		return nil
	}
	v := opt.AttrOr("value", "")
	return &v
}

func checkedFlag(doc *goquery.Document, id string) *string {
	sel := doc.Find("input#" + id).First()
	if sel.Length() == 0 {
		return nil
	}
	v := "0"
	if _, ok := sel.Attr("checked"); ok {
		v = "1"
	}
	return &v
}

// AccountSettings reads the account settings form
func (c *Client) AccountSettings(ctx context.Context) (*AccountSettings, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	p, err := c.get(ctx, AccountSettingsURL(c.baseURL))
	if err != nil {
		return nil, err
	}
	doc := p.Doc
	byName := func(name string) *string {
		return selectedOption(doc.Find(`select[name="` + name + `"]`).First())
	}

	return &AccountSettings{
		FullName:   inputValue(doc, "fullname"),
		UserEmail:  inputValue(doc, "fa_useremail"),
		Timezone:   byName("timezone"),
		BirthDay:   byName("bdayday"),
		BirthMonth: byName("bdaymonth"),
		BirthYear:  byName("bdayyear"),
		ViewMature: byName("viewmature"),
		Style:      byName("style"),
		Stylesheet: byName("stylesheet"),
	}, nil
}

// SiteSettings reads the site settings form
func (c *Client) SiteSettings(ctx context.Context) (*SiteSettings, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	p, err := c.get(ctx, SiteSettingsURL(c.baseURL))
	if err != nil {
		return nil, err
	}
	doc := p.Doc
	byID := func(id string) *string {
		return selectedOption(doc.Find("select#" + id).First())
	}

	return &SiteSettings{
		DisableAvatars:          checkedFlag(doc, "disable_avatars_yes"),
		DateFormat:              checkedFlag(doc, "switch-date-format-full"),
		PerPage:                 byID("select-preferred-perpage"),
		NewSubmissionsDirection: byID("select-newsubmissions-direction"),
		ThumbnailSize:           byID("select-thumbnail-size"),
		HideFavorites:           byID("hide-favorites"),
		NoGuests:                byID("no-guests"),
		NoNotes:                 byID("no-notes"),
	}, nil
}
