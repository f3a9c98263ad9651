package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --- Participle grammar structs ---
// These define the subset of SPARQL 1.1 the graph compiler interprets.
// Keyword tokens are upper-cased by the lexer mapping, so literals in the
// grammar are always written in upper case.

// document is the top-level grammar: a prologue followed by exactly one
// query form or a ';'-separated list of update operations.
type document struct {
	Prologue  []*prologueDecl `parser:"@@*"`
	Select    *selectQuery    `parser:"( @@"`
	Construct *constructQuery `parser:"| @@"`
	Ask       *askQuery       `parser:"| @@"`
	Describe  *describeQuery  `parser:"| @@"`
	Updates   []*updateOp     `parser:"| @@ ( ';' @@ )* ';'? )"`
}

// prologueDecl parses: BASE <iri> | PREFIX name: <iri>
type prologueDecl struct {
	Base   *string     `parser:"  'BASE' @IRI"`
	Prefix *prefixDecl `parser:"| 'PREFIX' @@"`
}

type prefixDecl struct {
	Name string `parser:"@PName"`
	IRI  string `parser:"@IRI"`
}

// selectQuery parses: SELECT [DISTINCT|REDUCED] (* | projection+) dataset* [WHERE] group modifiers [VALUES]
// It also serves sub-selects, where the grammar forbids dataset clauses.
type selectQuery struct {
	Modifier    string           `parser:"'SELECT' @( 'DISTINCT' | 'REDUCED' )?"`
	Star        bool             `parser:"( @'*'"`
	Projections []*projection    `parser:"| @@+ )"`
	Dataset     []*datasetClause `parser:"@@*"`
	Where       *groupPattern    `parser:"'WHERE'? @@"`
	Group       []*primaryExpr   `parser:"( 'GROUP' 'BY' @@+ )?"`
	Having      []*primaryExpr   `parser:"( 'HAVING' @@+ )?"`
	Order       []*orderCond     `parser:"( 'ORDER' 'BY' @@+ )?"`
	Slice       []*limitOffset   `parser:"@@*"`
	Values      *valuesClause    `parser:"( 'VALUES' @@ )?"`
}

// projection parses: ?var | ( expression AS ?var )
type projection struct {
	Var  string      `parser:"  @Var"`
	Expr *expression `parser:"| '(' @@"`
	As   string      `parser:"  'AS' @Var ')'"`
}

// constructQuery parses: CONSTRUCT { template } dataset* WHERE group modifiers
type constructQuery struct {
	Template []*triplesSameSubject `parser:"'CONSTRUCT' '{' ( @@ '.'? )* '}'"`
	Dataset  []*datasetClause      `parser:"@@*"`
	Where    *groupPattern         `parser:"'WHERE' @@"`
	Order    []*orderCond          `parser:"( 'ORDER' 'BY' @@+ )?"`
	Slice    []*limitOffset        `parser:"@@*"`
}

// askQuery parses: ASK dataset* [WHERE] group
type askQuery struct {
	Dataset []*datasetClause `parser:"'ASK' @@*"`
	Where   *groupPattern    `parser:"'WHERE'? @@"`
}

// describeQuery parses: DESCRIBE (* | (var|iri)+) dataset* [[WHERE] group] modifiers
type describeQuery struct {
	Star    bool             `parser:"'DESCRIBE' ( @'*'"`
	Targets []*varOrIRI      `parser:"| @@+ )"`
	Dataset []*datasetClause `parser:"@@*"`
	Where   *groupPattern    `parser:"( 'WHERE'? @@ )?"`
	Order   []*orderCond     `parser:"( 'ORDER' 'BY' @@+ )?"`
	Slice   []*limitOffset   `parser:"@@*"`
}

// datasetClause parses: FROM [NAMED] iri
type datasetClause struct {
	Named bool    `parser:"'FROM' @'NAMED'?"`
	IRI   *iriRef `parser:"@@"`
}

// orderCond parses: ASC(expr) | DESC(expr) | primary
type orderCond struct {
	Dir   string       `parser:"( @( 'ASC' | 'DESC' )"`
	Expr  *expression  `parser:"  '(' @@ ')'"`
	Plain *primaryExpr `parser:"| @@ )"`
}

// limitOffset parses one LIMIT or OFFSET clause, in either order.
type limitOffset struct {
	Limit  *int `parser:"  'LIMIT' @Number"`
	Offset *int `parser:"| 'OFFSET' @Number"`
}

// --- Graph patterns ---

// groupPattern is either a sub-select or a list of elements.
type groupPattern struct {
	SubSelect *selectQuery    `parser:"'{' ( @@"`
	Elements  []*groupElement `parser:"| @@* ) '}'"`
}

// groupElement is one entry of a group graph pattern.
type groupElement struct {
	Optional *groupPattern       `parser:"(  'OPTIONAL' @@"`
	Minus    *groupPattern       `parser:"| 'MINUS' @@"`
	Graph    *graphPattern       `parser:"| 'GRAPH' @@"`
	Service  *servicePattern     `parser:"| 'SERVICE' @@"`
	Filter   *primaryExpr        `parser:"| 'FILTER' @@"`
	Bind     *bindClause         `parser:"| 'BIND' '(' @@ ')'"`
	Values   *valuesClause       `parser:"| 'VALUES' @@"`
	Union    *unionPattern       `parser:"| @@"`
	Triples  *triplesSameSubject `parser:"| @@ ) '.'?"`
}

type graphPattern struct {
	Name  *varOrIRI     `parser:"@@"`
	Group *groupPattern `parser:"@@"`
}

type servicePattern struct {
	Silent bool          `parser:"@'SILENT'?"`
	Name   *varOrIRI     `parser:"@@"`
	Group  *groupPattern `parser:"@@"`
}

// unionPattern parses: group ( UNION group )*. A single group without
// UNION is a plain nested group.
type unionPattern struct {
	Groups []*groupPattern `parser:"@@ ( 'UNION' @@ )*"`
}

type bindClause struct {
	Expr *expression `parser:"@@"`
	Var  string      `parser:"'AS' @Var"`
}

// valuesClause parses: ?var { value* } | ( ?var* ) { ( value* )* }
type valuesClause struct {
	Tuple bool         `parser:"( @'('"`
	Vars  []string     `parser:"  @Var* ')' | @Var )"`
	Rows  []*valuesRow `parser:"'{' @@* '}'"`
}

type valuesRow struct {
	Tuple  []*dataValue `parser:"  '(' @@* ')'"`
	Single *dataValue   `parser:"| @@"`
}

type dataValue struct {
	Undef   bool     `parser:"  @'UNDEF'"`
	IRI     *iriRef  `parser:"| @@"`
	Literal *literal `parser:"| @@"`
}

// --- Triples ---

// triplesSameSubject parses: subject predicateObjects | [ predicateObjects ]
// A blank node property list may stand alone without further predicates.
type triplesSameSubject struct {
	Subject    *term               `parser:"(  @@"`
	Predicates []*predicateObjects `parser:"   @@ ( ';' @@? )*"`
	Node       []*predicateObjects `parser:"| '[' @@ ( ';' @@? )* ']' )"`
}

type predicateObjects struct {
	Verb    *verb   `parser:"@@"`
	Objects []*term `parser:"@@ ( ',' @@ )*"`
}

type verb struct {
	Var  string   `parser:"  @Var"`
	Path *pathAlt `parser:"| @@"`
}

type pathAlt struct {
	Seqs []*pathSeq `parser:"@@ ( '|' @@ )*"`
}

type pathSeq struct {
	Elts []*pathElt `parser:"@@ ( '/' @@ )*"`
}

type pathElt struct {
	Inverse bool         `parser:"@'^'?"`
	Primary *pathPrimary `parser:"@@"`
	Mod     string       `parser:"@( '*' | '+' | '?' )?"`
}

type pathPrimary struct {
	A       bool       `parser:"  @TypeA"`
	IRI     *iriRef    `parser:"| @@"`
	Negated []*pathOne `parser:"| '!' ( @@ | '(' @@ ( '|' @@ )* ')' )"`
	Group   *pathAlt   `parser:"| '(' @@ ')'"`
}

type pathOne struct {
	Inverse bool    `parser:"@'^'?"`
	A       bool    `parser:"( @TypeA"`
	IRI     *iriRef `parser:"| @@ )"`
}

type term struct {
	Var     string              `parser:"  @Var"`
	IRI     *iriRef             `parser:"| @@"`
	Literal *literal            `parser:"| @@"`
	Blank   string              `parser:"| @Blank"`
	Anon    bool                `parser:"| @( '[' ']' )"`
	Props   []*predicateObjects `parser:"| '[' @@ ( ';' @@? )* ']'"`
}

type varOrIRI struct {
	Var string  `parser:"  @Var"`
	IRI *iriRef `parser:"| @@"`
}

type iriRef struct {
	Full     string `parser:"  @IRI"`
	Prefixed string `parser:"| @PName"`
}

type literal struct {
	String *rdfString `parser:"  @@"`
	Number string     `parser:"| @( ( '-' | '+' )? Number )"`
	Bool   string     `parser:"| @( 'TRUE' | 'FALSE' )"`
}

type rdfString struct {
	Value    string  `parser:"@String"`
	Lang     string  `parser:"( @LangTag"`
	Datatype *iriRef `parser:"| '^^' @@ )?"`
}

// --- Expressions, lowest precedence first ---

type expression struct {
	Left  *andExpr   `parser:"@@"`
	Right []*andExpr `parser:"( '||' @@ )*"`
}

type andExpr struct {
	Left  *relExpr   `parser:"@@"`
	Right []*relExpr `parser:"( '&&' @@ )*"`
}

type relExpr struct {
	Left  *addExpr      `parser:"@@"`
	Op    string        `parser:"( @( '=' | '!=' | '<=' | '>=' | '<' | '>' )"`
	Right *addExpr      `parser:"  @@"`
	NotIn bool          `parser:"| @'NOT'?"`
	In    bool          `parser:"  @'IN'"`
	List  []*expression `parser:"  '(' ( @@ ( ',' @@ )* )? ')' )?"`
}

type addExpr struct {
	Left *mulExpr `parser:"@@"`
	Rest []*addOp `parser:"@@*"`
}

type addOp struct {
	Op    string   `parser:"@( '+' | '-' )"`
	Right *mulExpr `parser:"@@"`
}

type mulExpr struct {
	Left *unaryExpr `parser:"@@"`
	Rest []*mulOp   `parser:"@@*"`
}

type mulOp struct {
	Op    string     `parser:"@( '*' | '/' )"`
	Right *unaryExpr `parser:"@@"`
}

type unaryExpr struct {
	Op      string       `parser:"@( '!' | '+' | '-' )?"`
	Primary *primaryExpr `parser:"@@"`
}

type primaryExpr struct {
	Bracketed *expression   `parser:"  '(' @@ ')'"`
	NotExists *groupPattern `parser:"| 'NOT' 'EXISTS' @@"`
	Exists    *groupPattern `parser:"| 'EXISTS' @@"`
	Call      *functionCall `parser:"| @@"`
	Literal   *literal      `parser:"| @@"`
	Var       string        `parser:"| @Var"`
	IRI       *iriRef       `parser:"| @@"`
}

// functionCall parses built-in calls, aggregates and IRI function calls.
type functionCall struct {
	Name      string        `parser:"@( Ident | PName | IRI ) '('"`
	Distinct  bool          `parser:"@'DISTINCT'?"`
	Star      bool          `parser:"( @'*'"`
	Args      []*expression `parser:"| ( @@ ( ',' @@ )* )? )"`
	Separator *string       `parser:"( ';' 'SEPARATOR' '=' @String )? ')'"`
}

// --- Updates ---

type updateOp struct {
	Prologue    []*prologueDecl `parser:"@@*"`
	InsertData  *quadData       `parser:"(  'INSERT' 'DATA' @@"`
	DeleteData  *quadData       `parser:"| 'DELETE' 'DATA' @@"`
	DeleteWhere *quadData       `parser:"| 'DELETE' 'WHERE' @@"`
	Modify      *modify         `parser:"| @@ )"`
}

// modify parses: [WITH iri] [DELETE quads] [INSERT quads] WHERE group
type modify struct {
	With   *iriRef       `parser:"( 'WITH' @@ )?"`
	Delete *quadData     `parser:"( 'DELETE' @@ )?"`
	Insert *quadData     `parser:"( 'INSERT' @@ )?"`
	Where  *groupPattern `parser:"'WHERE' @@"`
}

type quadData struct {
	Elements []*quadElement `parser:"'{' @@* '}'"`
}

type quadElement struct {
	Graph   *graphQuads         `parser:"(  'GRAPH' @@"`
	Triples *triplesSameSubject `parser:"| @@ ) '.'?"`
}

type graphQuads struct {
	Name    *varOrIRI             `parser:"@@"`
	Triples []*triplesSameSubject `parser:"'{' ( @@ '.'? )* '}'"`
}

// Name character classes. Letters, marks and digits follow Unicode rather
// than ASCII so prefixed names like dbr:Zürich and variables like ?é lex.
const (
	pnCharsU = `\p{L}_`
	pnChars  = pnCharsU + `\p{N}\p{M}\x{00B7}\x{203F}-\x{2040}\-`
	plx      = `(?:%[0-9A-Fa-f]{2}|\\[_~.\-!$&'()*+,;=/?#@%])`
	iriChar  = `[^<>"{}|^\x60\\\s&]`
)

var sparqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	// An IRI starts with a letter or a relative-reference character and never
	// holds "&&", so unspaced comparisons like ?n<5&&?n>1 lex as operators.
	{Name: "IRI", Pattern: `<(?:[\p{L}#/._~%](?:` + iriChar + `|&` + iriChar + `)*&?)?>`},
	{Name: "Var", Pattern: `[?$][` + pnCharsU + `\p{N}][` + pnCharsU + `\p{N}\p{M}\x{00B7}\x{203F}-\x{2040}]*`},
	{Name: "String", Pattern: `"""(?:[^"\\]|\\.|"[^"]|""[^"])*"""|'''(?:[^'\\]|\\.|'[^']|''[^'])*'''|"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'`},
	{Name: "LangTag", Pattern: `@[A-Za-z]+(?:-[A-Za-z0-9]+)*`},
	{Name: "DTypeMark", Pattern: `\^\^`},
	{Name: "Blank", Pattern: `_:[` + pnCharsU + `\p{N}](?:[` + pnChars + `.]*[` + pnChars + `])?`},
	{Name: "PName", Pattern: `(?:\p{L}(?:[` + pnChars + `.]*[` + pnChars + `])?)?:` +
		`(?:(?:[` + pnCharsU + `\p{N}:]|` + plx + `)(?:(?:[` + pnChars + `.:]|` + plx + `)*(?:[` + pnChars + `:]|` + plx + `))?)?`},
	{Name: "Number", Pattern: `\d*\.\d+(?:[eE][+-]?\d+)?|\d+\.?\d*[eE][+-]?\d+|\d+`},
	{Name: "TypeA", Pattern: `a\b`},
	{Name: "Keyword", Pattern: `(?i:\b(?:BASE|PREFIX|SELECT|DISTINCT|REDUCED|CONSTRUCT|ASK|DESCRIBE|FROM|NAMED|WHERE|GROUP|BY|HAVING|ORDER|ASC|DESC|LIMIT|OFFSET|OPTIONAL|MINUS|GRAPH|SERVICE|SILENT|FILTER|BIND|AS|UNION|NOT|IN|EXISTS|TRUE|FALSE|SEPARATOR|INSERT|DELETE|DATA|WITH|VALUES|UNDEF)\b)`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Op", Pattern: `\|\||&&|!=|<=|>=|[=<>!+\-*/|^?]`},
	{Name: "Punct", Pattern: `[{}()\[\];,.]`},
})

var sparqlParser = participle.MustBuild[document](
	participle.Lexer(sparqlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Upper("Keyword"),
	participle.UseLookahead(1024),
)
