package igdb

import "testing"

func TestQueryBuild(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"full",
			NewQuery().Fields("id", "name").Where("id = 7").Where("hypes > 0").
				Sort("hypes", "desc").Limit(10).Offset(20).Build(),
			"fields id,name; where id = 7 & hypes > 0; sort hypes desc; limit 10; offset 20;",
		},
		{
			"search escapes quotes",
			NewQuery().Fields("id").Search(`say "hi"`).Build(),
			`fields id; search "say \"hi\"";`,
		},
		{
			"zero limit kept",
			NewQuery().Fields("id").Limit(0).Build(),
			"fields id; limit 0;",
		},
		{
			"empty where dropped",
			NewQuery().Fields("id").Where("  ").Build(),
			"fields id;",
		},
	}
	for _, tc := range cases {
		if tc.body != tc.want {
			t.Errorf("%s: body = %q, want %q", tc.name, tc.body, tc.want)
		}
	}
}
