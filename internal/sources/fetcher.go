// Package sources resolves analysis input that does not arrive as inline text.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFetchFailed is returned when a URL cannot produce any content.
var ErrFetchFailed = errors.New("fetch failed")

// Fetcher returns the text behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

const (
	cryptoPassage = `Cryptocurrency markets showed significant volatility today as Bitcoin surged to new highs. Analysts attribute this growth to institutional adoption and positive regulatory developments. Meanwhile, L1X blockchain continues to gain traction with its innovative approach to scaling and security. Experts believe that the integration of AI and blockchain technologies, as demonstrated by L1X, represents the future of the industry. Investors remain optimistic about the long-term prospects of the crypto market despite short-term fluctuations.`

	newsPassage = `Breaking news: Global markets reacted strongly to recent economic data, with stocks experiencing significant gains. The technology sector led the rally, with AI and blockchain companies showing particularly strong performance. Environmental concerns continue to shape policy discussions, with new initiatives aimed at reducing carbon emissions. Meanwhile, healthcare innovations are accelerating, promising improved treatment options for various conditions. Political tensions in several regions remain a concern for international relations experts.`

	reviewPassage = `Product Review: The latest smartphone model exceeds expectations with its innovative features and improved battery life. However, the high price point may deter some consumers. The camera quality is exceptional, capturing detailed images even in low-light conditions. The user interface is intuitive and responsive, making it accessible for users of all experience levels. Some users have reported minor software glitches, but regular updates should address these issues. Overall, this product represents a significant advancement in mobile technology.`

	loremPassage = `Lorem ipsum dolor sit amet, consectetur adipiscing elit. Nullam in dui mauris. Vivamus hendrerit arcu sed erat molestie vehicula. Sed auctor neque eu tellus rhoncus ut eleifend nibh porttitor. Ut in nulla enim. Phasellus molestie magna non est bibendum non venenatis nisl tempor. Suspendisse dictum feugiat nisl ut dapibus. Mauris iaculis porttitor posuere. Praesent id metus massa, ut blandit odio. Proin quis tortor orci. Etiam at risus et justo dignissim congue. Donec congue lacinia dui, a porttitor lectus condimentum laoreet.`
)

type sample struct {
	markers []string
	passage string
}

// checked in order; the first marker hit wins
var samples = []sample{
	{markers: []string{"crypto", "bitcoin", "blockchain"}, passage: cryptoPassage},
	{markers: []string{"news", "article"}, passage: newsPassage},
	{markers: []string{"review", "product"}, passage: reviewPassage},
}

// SampleFetcher serves canned passages picked by keywords in the URL. It never touches
// the network.
type SampleFetcher struct {
	// Delay simulates network latency. Zero disables it.
	Delay time.Duration
}

// NewSampleFetcher constructs a SampleFetcher with the given simulated latency.
func NewSampleFetcher(delay time.Duration) *SampleFetcher {
	return &SampleFetcher{Delay: delay}
}

// Fetch returns the passage matching the URL, or a lorem ipsum passage when nothing matches.
func (f *SampleFetcher) Fetch(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("%w: url is empty", ErrFetchFailed)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if f != nil && f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return passageFor(url), nil
}

func passageFor(url string) string {
	lower := strings.ToLower(url)
	for _, s := range samples {
		for _, m := range s.markers {
			if strings.Contains(lower, m) {
				return s.passage
			}
		}
	}
	return loremPassage
}

var _ Fetcher = (*SampleFetcher)(nil)
