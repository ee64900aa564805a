package secrets

// KeySpec lists the environment variables consulted for a secret, highest
// priority first.
type KeySpec struct {
	EnvVars []string
	Desc    string
}

var knownKeys = map[string]KeySpec{
	"github_token": {
		EnvVars: []string{"TOOLSTRAP_GITHUB_TOKEN", "GITHUB_TOKEN"},
		Desc:    "GitHub token for release lookups (raises the API rate limit)",
	},
	"pg_password": {
		EnvVars: []string{"TOOLSTRAP_PG_PASSWORD"},
		Desc:    "Password for the PostgreSQL role created by the postgres installer",
	},
}
