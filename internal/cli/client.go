package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"text/tabwriter"

	"explainit-service/internal/client"
	"explainit-service/internal/domain"
	"explainit-service/internal/state"
	"github.com/spf13/cobra"
)

// NewVideosCmd lists the feed the way the app would show it.
func NewVideosCmd(serverURL *string) *cobra.Command {
	var saved bool
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List the feed with quiz availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(*serverURL)
			videos := loadFeed(cmd.Context(), api)
			feed := state.NewFeedSession(videos, api)
			feed.DetectQuizzes(cmd.Context())

			list := videos.Videos()
			if saved {
				list = videos.Saved()
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCHARACTER\tQUIZ\tURL")
			for _, v := range list {
				quiz := "-"
				if feed.HasQuiz(v.ID) {
					quiz = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Title, v.Character.Name, quiz, v.VideoURL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&saved, "saved", false, "only saved videos")
	return cmd
}

// NewGenerateCmd drives the generation wizard non-interactively.
func NewGenerateCmd(serverURL *string) *cobra.Command {
	var (
		topic      string
		duration   int
		characters []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new explainer video",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api := client.New(*serverURL)
			videos := state.NewVideoStore(api, "", nil)
			wizard := state.NewGenerationWizard(api, api, videos)
			wizard.LoadCharacters(ctx)

			wizard.SetTopic(topic)
			if !wizard.SelectDuration(duration) {
				return fmt.Errorf("duration must be one of %v", domain.VideoLengths)
			}
			for _, name := range characters {
				if !wizard.ToggleCharacter(name) {
					return fmt.Errorf("cannot select character %q", name)
				}
			}

			log.Printf("generating %ds video on %q", duration, topic)
			if err := wizard.Generate(ctx); err != nil {
				return fmt.Errorf("%s: %w", wizard.State().Stage, err)
			}
			result := wizard.State().Result
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", result.Title, result.Character.Name, result.Duration)
			for _, v := range videos.Videos() {
				fmt.Fprintln(cmd.OutOrStdout(), v.VideoURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "what the video explains")
	cmd.Flags().IntVar(&duration, "duration", 30, "length in seconds")
	cmd.Flags().StringSliceVar(&characters, "characters", nil, "exactly two character names")
	return cmd
}

// NewLoginCmd stores a session for the other client commands.
func NewLoginCmd(serverURL *string) *cobra.Command {
	var email, password, name string
	var signup bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in (or sign up) and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newAuthStore(*serverURL)
			if err != nil {
				return err
			}
			var ok bool
			if signup {
				ok = auth.Signup(cmd.Context(), domain.Profile{Name: name, Email: email}, password)
			} else {
				ok = auth.Login(cmd.Context(), email, password)
			}
			if !ok {
				return errors.New(auth.Error())
			}
			user, _ := auth.User()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", user.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "full name (signup only)")
	cmd.Flags().BoolVar(&signup, "signup", false, "create the account first")
	return cmd
}

func NewLogoutCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newAuthStore(*serverURL)
			if err != nil {
				return err
			}
			auth.Restore(cmd.Context())
			auth.Logout(cmd.Context())
			return nil
		},
	}
}

// NewQuizCmd plays a video's quiz on the terminal and reports the score.
func NewQuizCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <video-id>",
		Short: "Take the quiz for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api := client.New(*serverURL)
			auth, err := newAuthStore(*serverURL)
			if err != nil {
				return err
			}
			if !auth.Restore(ctx) {
				log.Printf("not logged in; the score will not be recorded")
			}

			videos := loadFeed(ctx, api)
			feed := state.NewFeedSession(videos, api,
				state.WithAuth(auth),
				state.WithScoreReporter(state.SessionReporter{Gateway: api, Auth: auth}),
			)
			if !feed.OpenQuiz(ctx, args[0]) {
				return fmt.Errorf("no quiz for %s", args[0])
			}
			if err := playQuiz(feed.Quiz(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				feed.CloseQuiz()
				return err
			}
			feed.DismissQuiz()
			return nil
		},
	}
}

// NewLeaderboardCmd prints a leaderboard tab.
func NewLeaderboardCmd(serverURL *string) *cobra.Command {
	var scope, period string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(*serverURL)
			auth, err := newAuthStore(*serverURL)
			if err != nil {
				return err
			}
			auth.Restore(cmd.Context())

			board, err := api.Leaderboard(cmd.Context(), auth.Token(), domain.ParseScope(scope), domain.ParsePeriod(period))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tUSER\tPOINTS\tWATCHED")
			for _, e := range board.Entries {
				marker := ""
				if e.IsCurrentUser {
					marker = " (you)"
				}
				fmt.Fprintf(w, "%d\t%s%s\t%d\t%d\n", e.Rank, e.User.DisplayName, marker, e.Points, e.VideosWatched)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&scope, "scope", string(domain.ScopeGlobal), "global, community or friends")
	cmd.Flags().StringVar(&period, "period", string(domain.PeriodWeekly), "daily, weekly or allTime")
	return cmd
}

func newAuthStore(serverURL string) (*state.AuthStore, error) {
	path, err := state.DefaultSessionPath()
	if err != nil {
		return nil, err
	}
	return state.NewAuthStore(client.New(serverURL), state.NewFileSession(path)), nil
}

// loadFeed falls back to the sample cards when the backend is unreachable.
func loadFeed(ctx context.Context, api *client.Client) *state.VideoStore {
	videos := state.NewVideoStore(api, "", state.SampleVideos())
	if err := videos.Refresh(ctx); err != nil {
		log.Printf("refresh videos from %s: %v", api.BaseURL(), err)
	}
	return videos
}

func playQuiz(quiz *state.QuizFlow, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		st := quiz.State()
		if st.Phase == state.QuizComplete {
			fmt.Fprintf(out, "\nscore: %d/%d (%d points)\n", st.Score, st.Total, domain.QuizPoints(st.Score, st.Total))
			return nil
		}
		q := st.Question
		fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", st.Index+1, st.Total, q.Question)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}

		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err == nil && quiz.Select(n-1) {
				break
			}
			fmt.Fprintf(out, "pick 1-%d\n", len(q.Options))
		}
		quiz.Submit()

		st = quiz.State()
		if st.Correct {
			fmt.Fprintln(out, "correct!")
		} else {
			fmt.Fprintf(out, "wrong, the answer was %d) %s\n", q.CorrectAnswer+1, q.Options[q.CorrectAnswer])
		}
		if q.Explanation != "" {
			fmt.Fprintln(out, q.Explanation)
		}
		quiz.Next()
	}
}
