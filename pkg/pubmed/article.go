package pubmed

import (
	"context"
	"encoding/xml"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// Article is a parsed PubmedArticle record.
type Article struct {
	PMID     string
	Title    string
	Abstract string
	Journal  string
	// PubDate is YYYY-MM-DD, YYYY-MM or YYYY depending on available precision.
	PubDate string
	Authors []Author
}

// Author is a person in an article's author list.
type Author struct {
	LastName      string
	ForeName      string
	Initials      string
	Affiliation   string
	Email         string
	Corresponding bool
}

// FullName renders "ForeName LastName", falling back to initials or the last
// name alone.
func (a Author) FullName() string {
	switch {
	case a.ForeName != "" && a.LastName != "":
		return a.ForeName + " " + a.LastName
	case a.Initials != "" && a.LastName != "":
		return a.Initials + " " + a.LastName
	default:
		return a.LastName
	}
}

type xmlPubmedArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title    innerText `xml:"ArticleTitle"`
		Abstract struct {
			Text []innerText `xml:"AbstractText"`
		} `xml:"Abstract"`
		Journal struct {
			Title   string  `xml:"Title"`
			PubDate xmlDate `xml:"JournalIssue>PubDate"`
		} `xml:"Journal"`
		ArticleDate []xmlDate `xml:"ArticleDate"`
		AuthorList  struct {
			Authors []xmlAuthor `xml:"Author"`
		} `xml:"AuthorList"`
	} `xml:"MedlineCitation>Article"`
}

type xmlDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type xmlAuthor struct {
	Corresp         string `xml:"Corresp,attr"`
	LastName        string `xml:"LastName"`
	ForeName        string `xml:"ForeName"`
	Initials        string `xml:"Initials"`
	CollectiveName  string `xml:"CollectiveName"`
	Affiliation     string `xml:"Affiliation"`
	AffiliationInfo []struct {
		Affiliation string `xml:"Affiliation"`
	} `xml:"AffiliationInfo"`
}

// innerText captures element content including inline markup such as <i>.
type innerText struct {
	Inner string `xml:",innerxml"`
}

var (
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	emailRe     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	yearRe      = regexp.MustCompile(`\b(1[89]\d\d|2\d\d\d)\b`)
	monthWordRe = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

func (t innerText) String() string {
	s := tagRe.ReplaceAllString(t.Inner, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// normalizeMonth maps "Mar", "March" or "3" to "03".
func normalizeMonth(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return ""
	}
	if len(m) >= 3 {
		if n, ok := months[strings.ToLower(m[:3])]; ok {
			return n
		}
	}
	if len(m) == 1 {
		return "0" + m
	}
	return m
}

func (d xmlDate) String() string {
	if d.Year == "" && d.MedlineDate != "" {
		year := yearRe.FindString(d.MedlineDate)
		if year == "" {
			return ""
		}
		if m := monthWordRe.FindString(d.MedlineDate); m != "" {
			return year + "-" + normalizeMonth(m)
		}
		return year
	}
	if d.Year == "" {
		return ""
	}
	month := normalizeMonth(d.Month)
	day := strings.TrimSpace(d.Day)
	switch {
	case month != "" && day != "":
		if len(day) == 1 {
			day = "0" + day
		}
		return d.Year + "-" + month + "-" + day
	case month != "":
		return d.Year + "-" + month
	default:
		return d.Year
	}
}

func (x xmlPubmedArticle) toArticle() Article {
	a := Article{
		PMID:    strings.TrimSpace(x.PMID),
		Title:   x.Article.Title.String(),
		Journal: strings.TrimSpace(x.Article.Journal.Title),
		PubDate: x.Article.Journal.PubDate.String(),
	}
	if a.PubDate == "" && len(x.Article.ArticleDate) > 0 {
		a.PubDate = x.Article.ArticleDate[0].String()
	}

	parts := make([]string, 0, len(x.Article.Abstract.Text))
	for _, t := range x.Article.Abstract.Text {
		if s := t.String(); s != "" {
			parts = append(parts, s)
		}
	}
	a.Abstract = strings.Join(parts, " ")

	for _, xa := range x.Article.AuthorList.Authors {
		// Group authorship is not a person.
		if xa.LastName == "" {
			continue
		}
		affs := make([]string, 0, len(xa.AffiliationInfo)+1)
		if s := strings.TrimSpace(xa.Affiliation); s != "" {
			affs = append(affs, s)
		}
		for _, ai := range xa.AffiliationInfo {
			if s := strings.TrimSpace(ai.Affiliation); s != "" {
				affs = append(affs, s)
			}
		}
		author := Author{
			LastName:    strings.TrimSpace(xa.LastName),
			ForeName:    strings.TrimSpace(xa.ForeName),
			Initials:    strings.TrimSpace(xa.Initials),
			Affiliation: strings.Join(affs, "; "),
		}
		author.Email = strings.TrimRight(emailRe.FindString(author.Affiliation), ".")
		// PubMed appends "Electronic address:" only for corresponding authors.
		author.Corresponding = strings.EqualFold(xa.Corresp, "Y") || author.Email != ""
		a.Authors = append(a.Authors, author)
	}
	return a
}

// DecodeArticles parses a PubmedArticleSet document.
func DecodeArticles(ctx context.Context, r io.Reader) ([]Article, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "pubmed: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var out []Article
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pubmed: context cancelled")
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "pubmed: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "PubmedArticle" {
			continue
		}

		var item xmlPubmedArticle
		if err := decoder.DecodeElement(&item, &se); err != nil {
			return nil, eris.Wrap(err, "pubmed: decode article")
		}
		out = append(out, item.toArticle())
	}
}
