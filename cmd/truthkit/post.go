package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"truthkit/pkg/composer"
	"truthkit/pkg/media"
	"truthkit/pkg/truthsocial"
)

var (
	postVisibility  string
	postMediaFiles  []string
	postReplyTo     string
	postQuote       string
	postGroup       string
	postGroupPublic bool
	postContentType string
	postPollOptions []string
	postPollExpires int
	postPollMulti   bool
)

// postCmd represents the post command
var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Compose and submit a post",
	Long: `Compose and submit a post, optionally attaching media files.

Media files are uploaded first and polled until the server finishes
processing them; the post is only submitted once every attachment is
ready. Validation failures never reach the network.`,
	Example: `  # A plain public post
  truthkit post "hello world"

  # Attach media and restrict visibility
  truthkit post "look at this" --media photo.jpg --visibility unlisted

  # Reply to a status
  truthkit post "agreed" --reply-to 110911363389193871

  # Attach a poll
  truthkit post "lunch?" --poll-option pizza --poll-option sushi --poll-expires 86400`,
	Args: cobra.ExactArgs(1),
	Run:  runPost,
}

func init() {
	rootCmd.AddCommand(postCmd)

	postCmd.Flags().StringVar(&postVisibility, "visibility", "public", "post visibility (public, unlisted, private, direct)")
	postCmd.Flags().StringSliceVarP(&postMediaFiles, "media", "m", nil, "media file to attach (repeatable, max 4)")
	postCmd.Flags().StringVar(&postReplyTo, "reply-to", "", "status ID to reply to")
	postCmd.Flags().StringVar(&postQuote, "quote", "", "status ID to quote")
	postCmd.Flags().StringVar(&postGroup, "group", "", "group ID to post into")
	postCmd.Flags().BoolVar(&postGroupPublic, "group-public", false, "show the group post on the public group timeline")
	postCmd.Flags().StringVar(&postContentType, "content-type", "", "content type of the post body (default text/plain)")
	postCmd.Flags().StringArrayVar(&postPollOptions, "poll-option", nil, "poll option (repeatable)")
	postCmd.Flags().IntVar(&postPollExpires, "poll-expires", 86400, "poll duration in seconds")
	postCmd.Flags().BoolVar(&postPollMulti, "poll-multiple", false, "allow multiple poll choices")
}

func runPost(cmd *cobra.Command, args []string) {
	session, cfg, log, err := newSession()
	if err != nil {
		fatal("failed to open session", err)
	}

	draft := composer.Draft{
		Content:              args[0],
		Visibility:           composer.Visibility(postVisibility),
		InReplyToID:          postReplyTo,
		QuoteID:              postQuote,
		GroupID:              postGroup,
		GroupTimelineVisible: postGroupPublic,
		ContentType:          postContentType,
	}
	if len(postPollOptions) > 0 {
		draft.Poll = &truthsocial.Poll{
			Options:   postPollOptions,
			ExpiresIn: postPollExpires,
			Multiple:  postPollMulti,
		}
	}

	c := composer.New(session, log)

	var post *composer.Post
	if len(postMediaFiles) > 0 {
		sources := make([]media.Source, len(postMediaFiles))
		for i, path := range postMediaFiles {
			sources[i] = media.Source{Path: path}
		}
		pipeline := media.NewPipeline(session, cfg.Media, log)
		post, err = c.SubmitWithMedia(cmd.Context(), draft, pipeline, sources)
	} else {
		post, err = c.Submit(cmd.Context(), draft)
	}
	if err != nil {
		fatal("post failed", err)
	}

	fmt.Printf("Posted %s\n", post.ID)
	if post.URL != "" {
		fmt.Println(post.URL)
	}
}
