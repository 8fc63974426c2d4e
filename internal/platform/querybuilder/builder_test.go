package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "value").
		From("scores").
		Where(Eq("tournament_public_id", "t1"), IsNull("deleted_at")).
		OrderBy("submitted_at", "public_id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, value FROM scores WHERE tournament_public_id = $1 AND deleted_at IS NULL ORDER BY submitted_at, public_id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "t1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_GroupByAndIn(t *testing.T) {
	query, args, err := Select("user_id", "COALESCE(SUM(value), 0) AS total").
		From("scores").
		Where(
			Eq("tournament_public_id", "t1"),
			EqLiteral("status", "approved"),
			In("channel", []any{"manual", "bookmarklet"}),
		).
		GroupBy("user_id").
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build aggregate query: %v", err)
	}

	wantQuery := "SELECT user_id, COALESCE(SUM(value), 0) AS total FROM scores" +
		" WHERE tournament_public_id = $1 AND status = 'approved' AND channel IN ($2, $3)" +
		" GROUP BY user_id ORDER BY user_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "t1" || args[1] != "manual" || args[2] != "bookmarklet" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("participants").
		Columns("tournament_public_id", "user_id").
		Values("t1", "u1").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO participants (tournament_public_id, user_id) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "t1" || args[1] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("scores").
		Set("value", 1001000).
		SetExpr("updated_at", "NOW()").
		Where(
			Eq("public_id", "s1"),
			EqLiteral("status", "approved"),
			Expr("value < ?", 1001000),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE scores SET value = $1, updated_at = NOW()" +
		" WHERE public_id = $2 AND status = 'approved' AND value < $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != 1001000 || args[1] != "s1" || args[2] != 1001000 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
