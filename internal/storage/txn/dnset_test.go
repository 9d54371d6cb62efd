package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDnSetOverlaps tests the read/write overlap rule for every scope pair.
func TestDnSetOverlaps(t *testing.T) {
	tests := []struct {
		name  string
		read  DnSet
		write DnSet
		want  bool
	}{
		{"object equal", object("cn=a,dc=com"), object("CN=A,dc=com"), true},
		{"object different", object("cn=a,dc=com"), object("cn=b,dc=com"), false},
		{"object parent vs object child", object("dc=com"), object("cn=a,dc=com"), false},

		{"object read below subtree write", object("cn=a,ou=x,dc=com"), subtree("ou=x,dc=com"), true},
		{"object read at subtree base", object("ou=x,dc=com"), subtree("ou=x,dc=com"), true},
		{"object read outside subtree write", object("cn=a,ou=y,dc=com"), subtree("ou=x,dc=com"), false},
		{"object read above subtree write", object("dc=com"), subtree("ou=x,dc=com"), false},
		{"object read two levels below onelevel write", object("cn=a,ou=b,ou=x,dc=com"), oneLevel("ou=x,dc=com"), true},

		{"subtree read over object write", subtree("ou=x,dc=com"), object("ou=y,ou=x,dc=com"), true},
		{"subtree read of base object write", subtree("ou=x,dc=com"), object("ou=x,dc=com"), true},
		{"subtree read above nothing", subtree("ou=x,dc=com"), object("dc=com"), false},
		{"onelevel read over deep object write", oneLevel("ou=x,dc=com"), object("cn=a,ou=b,ou=x,dc=com"), true},

		{"subtree nested in subtree", subtree("ou=a,ou=x,dc=com"), subtree("ou=x,dc=com"), true},
		{"subtree containing subtree", subtree("dc=com"), subtree("ou=x,dc=com"), true},
		{"disjoint subtrees", subtree("ou=a,dc=com"), subtree("ou=b,dc=com"), false},
		{"onelevel and subtree", oneLevel("ou=x,dc=com"), subtree("cn=a,ou=x,dc=com"), true},
		{"disjoint onelevels", oneLevel("ou=a,dc=com"), oneLevel("ou=b,dc=com"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.read.Overlaps(tt.write))
		})
	}
}

// TestScopeString tests Scope names.
func TestScopeString(t *testing.T) {
	assert.Equal(t, "object", ScopeObject.String())
	assert.Equal(t, "onelevel", ScopeOneLevel.String())
	assert.Equal(t, "subtree", ScopeSubtree.String())
	assert.Equal(t, "subtree(ou=x,dc=com)", subtree("OU=x,dc=com").String())
}
