package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"campusnet/internal/app"
	"campusnet/internal/feed"
	"campusnet/internal/models"
	"campusnet/internal/validation"
)

// runShell reads commands from stdin until EOF or quit. It is a thin
// presentation layer; all state changes go through the controller.
func runShell(ctx context.Context, c *app.Controller) {
	fmt.Println("campusnet shell. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			printHelp()
		case "signin":
			shellSignIn(ctx, c, rest)
		case "signup":
			shellSignUp(ctx, c, rest)
		case "signout":
			report(c.SignOut(ctx))
		case "whoami":
			shellWhoami(c)
		case "feed":
			printPosts(c.VisibleFeed())
		case "mode":
			shellMode(c, rest)
		case "category":
			shellCategory(c, rest)
		case "search":
			c.SetSearch(rest)
			printPosts(c.VisibleFeed())
		case "post":
			shellCreatePost(ctx, c, rest)
		case "comment":
			shellComment(ctx, c, rest)
		case "react":
			shellReact(ctx, c, rest)
		case "suggest":
			fmt.Println(c.SuggestTitle(ctx, rest))
		case "summarize":
			fmt.Println(c.Summarize(ctx, rest))
		case "clubs":
			printClubs(c.Store().Clubs())
		case "clubfeed":
			shellClubFeed(c)
		case "join":
			report(c.JoinClub(ctx, rest))
		case "leave":
			report(c.LeaveClub(ctx, rest))
		case "newclub":
			shellCreateClub(ctx, c, rest)
		case "users":
			shellSearchUsers(ctx, c, rest)
		case "view":
			shellViewProfile(ctx, c, rest)
		case "follow":
			report(c.Follow(ctx, rest))
		case "unfollow":
			report(c.Unfollow(ctx, rest))
		case "drafts":
			shellDrafts(ctx, c)
		default:
			fmt.Printf("Unknown command %q. Type 'help'.\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  signin <email> <password>      sign in
  signup <email> <password> <name>
  signout                        sign out and clear state
  whoami                         show the current profile
  feed                           show the filtered feed
  mode following|global          switch feed mode
  category <name>|all            filter by category
  search <text>                  filter by text ('' clears)
  post <category> <title> | <content>
  comment <post-id> <text>       add a comment
  react <post-id> <kind>         toggle a reaction (like love funny insightful)
  suggest <content>              suggest a title
  summarize <post-id>            summarize a post
  clubs                          list clubs
  clubfeed                       posts grouped by joined clubs
  join|leave <club-id>           membership
  newclub <name> | <description>
  users <query>                  search people
  view <user-id>                 view a profile
  follow|unfollow <user-id>
  drafts                         list local drafts
  quit
`)
}

func report(err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("ok")
}

func shellSignIn(ctx context.Context, c *app.Controller, rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		fmt.Println("usage: signin <email> <password>")
		return
	}
	report(c.SignIn(ctx, fields[0], fields[1]))
}

func shellSignUp(ctx context.Context, c *app.Controller, rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		fmt.Println("usage: signup <email> <password> <name>")
		return
	}
	name := strings.Join(fields[2:], " ")
	report(c.SignUp(ctx, fields[0], fields[1], name))
}

func shellWhoami(c *app.Controller) {
	cur := c.Store().Current()
	if cur == nil {
		fmt.Println("not signed in")
		return
	}
	fmt.Printf("%s (%s) following %d people\n", cur.Name, cur.ID, len(cur.Following))
}

func shellMode(c *app.Controller, rest string) {
	switch rest {
	case "following":
		c.SetFeedMode(feed.ModeFollowing)
	case "global":
		c.SetFeedMode(feed.ModeGlobal)
	default:
		fmt.Println("usage: mode following|global")
		return
	}
	printPosts(c.VisibleFeed())
}

func shellCategory(c *app.Controller, rest string) {
	if rest == "all" {
		c.SetCategory(feed.CategoryAll)
		printPosts(c.VisibleFeed())
		return
	}
	cat := models.Category(rest)
	if !cat.Valid() {
		fmt.Printf("unknown category %q\n", rest)
		return
	}
	c.SetCategory(cat)
	printPosts(c.VisibleFeed())
}

func shellCreatePost(ctx context.Context, c *app.Controller, rest string) {
	category, remainder, _ := strings.Cut(rest, " ")
	title, content, ok := strings.Cut(remainder, "|")
	if !ok {
		fmt.Println("usage: post <category> <title> | <content>")
		return
	}
	in := validation.NewPostInput{
		Title:    strings.TrimSpace(title),
		Content:  strings.TrimSpace(content),
		Category: models.Category(category),
	}
	post, err := c.CreatePost(ctx, in, "", nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("created", post.ID)
}

func shellComment(ctx context.Context, c *app.Controller, rest string) {
	postID, text, ok := strings.Cut(rest, " ")
	if !ok {
		fmt.Println("usage: comment <post-id> <text>")
		return
	}
	report(c.AddComment(ctx, postID, strings.TrimSpace(text)))
}

func shellReact(ctx context.Context, c *app.Controller, rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		fmt.Println("usage: react <post-id> <kind>")
		return
	}
	report(c.ToggleReaction(ctx, fields[0], models.ReactionKind(fields[1])))
}

func shellCreateClub(ctx context.Context, c *app.Controller, rest string) {
	name, description, ok := strings.Cut(rest, "|")
	if !ok {
		fmt.Println("usage: newclub <name> | <description>")
		return
	}
	club, err := c.CreateClub(ctx, strings.TrimSpace(name), strings.TrimSpace(description), "")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("created", club.ID)
}

func shellSearchUsers(ctx context.Context, c *app.Controller, query string) {
	results, err := c.SearchUsers(ctx, query)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, r := range results {
		fmt.Printf("%s  %s (%s)\n", r.ID, r.Name, r.Major)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
	}
}

func shellViewProfile(ctx context.Context, c *app.Controller, userID string) {
	target := models.Identity{ID: userID}
	// Prefer the identity record already cached on the feed.
	for _, p := range c.Store().Posts() {
		if p.Author.ID == userID {
			target = p.Author
			break
		}
	}

	pv, err := c.ViewProfile(ctx, target)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%s: %d followers, %d following", pv.Name, pv.FollowerCount, pv.FollowingCount)
	if pv.IsFollowedByCurrentUser {
		fmt.Print(" (followed)")
	}
	fmt.Println()
}

func shellClubFeed(c *app.Controller) {
	groups := c.ClubFeed()
	if len(groups) == 0 {
		fmt.Println("no joined clubs with posts")
		return
	}
	for _, g := range groups {
		fmt.Printf("== %s ==\n", g.Club.Name)
		printPosts(g.Posts)
	}
}

func shellDrafts(ctx context.Context, c *app.Controller) {
	list, err := c.ListDrafts(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, d := range list {
		fmt.Printf("%s  [%s] %s\n", d.DraftID, d.Category, d.Title)
	}
	if len(list) == 0 {
		fmt.Println("no drafts")
	}
}

func printPosts(posts []models.Post) {
	for _, p := range posts {
		fmt.Printf("%s  [%s] %s by %s (%d reactions, %d comments)\n",
			p.ID, p.Category, p.Title, p.Author.Name, p.Reactions.Count(), len(p.Comments))
	}
	if len(posts) == 0 {
		fmt.Println("nothing to show")
	}
}

func printClubs(clubs []models.Club) {
	for _, club := range clubs {
		fmt.Printf("%s  %s (%d members)\n", club.ID, club.Name, club.MemberCount)
	}
	if len(clubs) == 0 {
		fmt.Println("no clubs")
	}
}
