// Package nutrirag embeds the elderly nutrition assistant in a Go program:
// knowledge retrieval, prompt assembly, answer generation and multi-turn
// sessions, without running the HTTP service.
//
// # Single questions
//
//	client, _ := nutrirag.New(ctx, nutrirag.WithDocuments(docs...))
//	defer client.Close()
//	ans, _ := client.Ask(ctx, "糖尿病老人早餐怎么吃？")
//	fmt.Println(ans.Text)
//
// # Sessions
//
//	sessions := client.Sessions()
//	id := sessions.Start("user-42", map[string]string{"age": "75"})
//	ans, err := sessions.Send(ctx, id, "需要补钙吗？")
//	if errors.Is(err, nutrirag.ErrSessionExpired) {
//	    id = sessions.Start("user-42", nil)
//	}
//
// Without WithCompleter answers come from the built-in offline backend.
// Without WithEmbedder documents are embedded by feature hashing.
package nutrirag
