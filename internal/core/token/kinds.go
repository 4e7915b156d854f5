package token

import (
	"regexp"
	"strconv"
	"strings"
)

// regexMeta is the set of characters escaped in the variable part of a pattern.
const regexMeta = `-[]/{}()*+?.\^$|`

// EscapeName regex-escapes an artifact name before it is embedded in a pattern.
func EscapeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(regexMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func compile(pattern string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}
	return re
}

// NewContentTypeID resolves <<contenttypeid:NAME>> to a content type identifier.
func NewContentTypeID(web WebRef, name, contentTypeID string) *Definition {
	return newDefinition(KindContentTypeID, web, contentTypeID,
		"<<contenttypeid:"+EscapeName(name)+">>")
}

// NewFieldTitle resolves {{fieldtitle:INTERNALNAME}} to the field's display title.
func NewFieldTitle(web WebRef, internalName, title string) *Definition {
	return newDefinition(KindFieldTitle, web, title,
		"{{fieldtitle:"+EscapeName(internalName)+"}}")
}

// NewGroupID resolves <<groupid:NAME>> to a site group's numeric identifier.
func NewGroupID(web WebRef, name string, groupID int) *Definition {
	return newDefinition(KindGroupID, web, strconv.Itoa(groupID),
		"<<groupid:"+EscapeName(name)+">>")
}

// NewListID resolves {{listid:NAME}} to a list identifier.
func NewListID(web WebRef, title, listID string) *Definition {
	return newDefinition(KindListID, web, listID,
		"{{listid:"+EscapeName(title)+"}}")
}

// NewListURL resolves <<listurl:NAME>> to the list's web-relative URL.
func NewListURL(web WebRef, title, listURL string) *Definition {
	return newDefinition(KindListURL, web, listURL,
		"<<listurl:"+EscapeName(title)+">>")
}

// NewParameter resolves <<parameter:NAME>> and <<$NAME>> to a template parameter.
func NewParameter(web WebRef, key, value string) *Definition {
	name := EscapeName(key)
	return newDefinition(KindParameter, web, value,
		"<<parameter:"+name+">>",
		`<<\$`+name+">>")
}

// NewRoleDefinition resolves {{roledefinition:ROLETYPEKIND}} to the role definition's name.
func NewRoleDefinition(web WebRef, roleTypeKind, name string) *Definition {
	return newDefinition(KindRoleDefinition, web, name,
		"{{roledefinition:"+EscapeName(roleTypeKind)+"}}")
}

// NewSiteCollectionTermStoreID resolves to the default term store of the site
// collection. It is the one token that needs a remote lookup.
func NewSiteCollectionTermStoreID(web WebRef) *Definition {
	return newDefinition(KindSiteCollectionTermStoreID, web, "",
		"~sitecollectiontermstoreid",
		"<<sitecollectiontermstoreid>>",
		"{{sitecollectiontermstoreid}}")
}

// NewTermSetID resolves <<termsetid:GROUP:TERMSET>> to a term set identifier.
func NewTermSetID(web WebRef, groupName, termSetName, termSetID string) *Definition {
	return newDefinition(KindTermSetID, web, termSetID,
		"<<termsetid:"+EscapeName(groupName)+":"+EscapeName(termSetName)+">>")
}

// NewTermStoreID resolves <<termstoreid:NAME>> to a term store identifier.
func NewTermStoreID(web WebRef, storeName, termStoreID string) *Definition {
	return newDefinition(KindTermStoreID, web, termStoreID,
		"<<termstoreid:"+EscapeName(storeName)+">>")
}
